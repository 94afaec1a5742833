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
	"math/big"
	"time"
)

// Flow is the mutable per (channel, value class) quota-tracking record.
// Outflow and inflow are unsigned magnitudes; WindowStart is aligned to a
// fixed UTC boundary. Flows are created lazily on the first packet touching
// the pair and live indefinitely.
type Flow struct {
	Outflow     *big.Int
	Inflow      *big.Int
	WindowStart time.Time
}

func newFlow(now time.Time, window time.Duration) *Flow {
	return &Flow{
		Outflow:     new(big.Int),
		Inflow:      new(big.Int),
		WindowStart: alignWindowStart(now, window),
	}
}

// alignWindowStart returns the most recent window boundary at or before now.
// Boundaries are fixed multiples of the window measured in UTC, so every
// participant that agrees on the window agrees on the boundaries.
func alignWindowStart(now time.Time, window time.Duration) time.Time {
	return now.UTC().Truncate(window)
}

// rollover zeroes the flow if at least one window boundary has been crossed
// since WindowStart, and advances WindowStart to the most recent boundary at
// or before now. Crossing zero boundaries leaves the flow unchanged; flows
// are never zeroed retroactively.
func (f *Flow) rollover(now time.Time, window time.Duration) {
	if now.Sub(f.WindowStart) < window {
		return
	}
	f.Outflow.SetInt64(0)
	f.Inflow.SetInt64(0)
	f.WindowStart = alignWindowStart(now, window)
}
