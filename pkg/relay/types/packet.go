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

package types

import "fmt"

// Height is a protocol height on the counterparty, split into a revision
// number and a height within that revision. The zero value means "no height
// timeout".
type Height struct {
	RevisionNumber uint64 `json:"revision_number,omitempty"`
	RevisionHeight uint64 `json:"revision_height,omitempty"`
}

// IsZero reports whether the height is unset.
func (h Height) IsZero() bool {
	return h.RevisionNumber == 0 && h.RevisionHeight == 0
}

// String renders the height in the canonical "revision-height" form.
func (h Height) String() string {
	return fmt.Sprintf("%d-%d", h.RevisionNumber, h.RevisionHeight)
}

// Packet is one unit of inter-chain traffic. Packets are immutable: they are
// created by the sending application (or by a middleware originating a new
// hop) and never modified afterwards. Identity within a path is
// (SourceChannel, Sequence).
type Packet struct {
	Sequence           uint64 `json:"sequence"`
	SourcePort         string `json:"source_port"`
	SourceChannel      string `json:"source_channel"`
	DestinationPort    string `json:"destination_port"`
	DestinationChannel string `json:"destination_channel"`
	Data               []byte `json:"data"`
	TimeoutHeight      Height `json:"timeout_height"`
	TimeoutTimestamp   uint64 `json:"timeout_timestamp,omitempty"`
}

// Validate checks the structural fields a transport would refuse anyway.
func (p Packet) Validate() error {
	if p.Sequence == 0 {
		return fmt.Errorf("packet sequence must be non-zero")
	}
	if p.SourcePort == "" || p.SourceChannel == "" {
		return fmt.Errorf("packet source port and channel must be set")
	}
	if p.DestinationPort == "" || p.DestinationChannel == "" {
		return fmt.Errorf("packet destination port and channel must be set")
	}
	if len(p.Data) == 0 {
		return fmt.Errorf("packet data must not be empty")
	}
	if p.TimeoutHeight.IsZero() && p.TimeoutTimestamp == 0 {
		return fmt.Errorf("packet must have a timeout height or timestamp")
	}
	return nil
}
