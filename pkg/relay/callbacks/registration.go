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

package callbacks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CallbackType names the packet-lifecycle point a callback fires at.
type CallbackType string

const (
	// CallbackTypeSource fires on the source chain when the packet is sent.
	CallbackTypeSource CallbackType = "source"
	// CallbackTypeDestination fires on the destination chain when the packet
	// is received.
	CallbackTypeDestination CallbackType = "destination"
	// CallbackTypeAcknowledgement fires on the source chain when the
	// acknowledgement returns.
	CallbackTypeAcknowledgement CallbackType = "acknowledgement"
	// CallbackTypeTimeout fires on the source chain when the packet times
	// out.
	CallbackTypeTimeout CallbackType = "timeout"
)

// Registration is the per-packet callback request parsed from the memo. It
// is ephemeral: it exists only for the duration of one lifecycle event and
// is never persisted.
type Registration struct {
	Address  string `json:"address"`
	GasLimit uint64 `json:"gas_limit,omitempty"`
}

// Validate checks the registration fields.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("callback address must be set")
	}
	return nil
}

const (
	sourceCallbackKey = "src_callback"
	destCallbackKey   = "dest_callback"
)

// ParseSourceCallback extracts the source-side callback registration, which
// governs the send, acknowledgement and timeout lifecycle points.
func ParseSourceCallback(memo string) (*Registration, bool, error) {
	return parseRegistration(memo, sourceCallbackKey)
}

// ParseDestinationCallback extracts the destination-side callback
// registration, which governs the receive lifecycle point.
func ParseDestinationCallback(memo string) (*Registration, bool, error) {
	return parseRegistration(memo, destCallbackKey)
}

func parseRegistration(memo, key string) (*Registration, bool, error) {
	if strings.TrimSpace(memo) == "" {
		return nil, false, nil
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(memo), &keys); err != nil {
		return nil, false, nil
	}
	raw, ok := keys[key]
	if !ok {
		return nil, false, nil
	}
	registration := &Registration{}
	if err := json.Unmarshal(raw, registration); err != nil {
		return nil, false, fmt.Errorf("malformed %s registration: %w", key, err)
	}
	if err := registration.Validate(); err != nil {
		return nil, false, err
	}
	return registration, true, nil
}
