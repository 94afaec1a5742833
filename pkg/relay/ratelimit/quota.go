/*
Copyright 2025 The ibc-apps Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ratelimit

import (
	"fmt"
	"time"
)

// Quota bounds the net flow on one (channel, value class) pair within a
// rolling window. Percentages are fractions of the total channel value as
// reported by the ChannelValueOracle. Quotas are created and mutated only
// through the governance surface on the Limiter; admission checks read them.
type Quota struct {
	ChannelID      string `json:"channel_id"`
	ValueClass     string `json:"value_class"`
	MaxPercentSend uint64 `json:"max_percent_send"`
	MaxPercentRecv uint64 `json:"max_percent_recv"`
	WindowHours    uint64 `json:"window_hours"`
}

// Validate checks the quota's fields.
func (q Quota) Validate() error {
	if q.ChannelID == "" {
		return fmt.Errorf("quota channel id must be set")
	}
	if q.ValueClass == "" {
		return fmt.Errorf("quota value class must be set")
	}
	if q.MaxPercentSend > 100 || q.MaxPercentRecv > 100 {
		return fmt.Errorf("quota percentages must be within [0, 100], got send %d recv %d", q.MaxPercentSend, q.MaxPercentRecv)
	}
	if q.WindowHours == 0 {
		return fmt.Errorf("quota window must be at least one hour")
	}
	return nil
}

// WindowDuration returns the quota window as a duration.
func (q Quota) WindowDuration() time.Duration {
	return time.Duration(q.WindowHours) * time.Hour
}
