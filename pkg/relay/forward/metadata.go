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

package forward

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Cordtus/ibc-apps/pkg/relay/types"
)

// ForwardMetadata is the "forward to next hop" instruction embedded in a
// transfer payload's memo field under the "forward" key.
type ForwardMetadata struct {
	Receiver string         `json:"receiver"`
	Port     string         `json:"port"`
	Channel  string         `json:"channel"`
	Timeout  types.Duration `json:"timeout,omitempty"`
	Retries  *uint8         `json:"retries,omitempty"`

	// Next is the replacement memo for the forwarded packet, carrying any
	// further hop instructions. Chains of arbitrary depth resolve one hop at
	// a time.
	Next json.RawMessage `json:"next,omitempty"`
}

// Validate checks the fields needed to construct the next hop.
func (m ForwardMetadata) Validate() error {
	if strings.TrimSpace(m.Receiver) == "" {
		return fmt.Errorf("forward metadata receiver must be set")
	}
	if m.Port == "" || m.Channel == "" {
		return fmt.Errorf("forward metadata port and channel must be set")
	}
	if m.Timeout < 0 {
		return fmt.Errorf("forward metadata timeout must not be negative")
	}
	return nil
}

// NextMemo returns the memo string for the forwarded packet.
func (m ForwardMetadata) NextMemo() string {
	if len(m.Next) == 0 {
		return ""
	}
	return string(m.Next)
}

// ParseForwardMetadata extracts the forward instruction from a memo string.
// A memo that is not a JSON object, or that carries no "forward" key, is not
// a forward instruction and returns ok=false. A "forward" key that fails to
// decode or validate is an error: a sender who asked to forward must not
// silently have the packet terminate here instead.
func ParseForwardMetadata(memo string) (*ForwardMetadata, bool, error) {
	if strings.TrimSpace(memo) == "" {
		return nil, false, nil
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(memo), &keys); err != nil {
		return nil, false, nil
	}
	raw, ok := keys["forward"]
	if !ok {
		return nil, false, nil
	}
	metadata := &ForwardMetadata{}
	if err := json.Unmarshal(raw, metadata); err != nil {
		return nil, false, fmt.Errorf("malformed forward metadata: %w", err)
	}
	if err := metadata.Validate(); err != nil {
		return nil, false, err
	}
	return metadata, true, nil
}
