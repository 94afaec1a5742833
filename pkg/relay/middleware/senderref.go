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

package middleware

import (
	"context"

	"github.com/Cordtus/ibc-apps/pkg/relay/types"
	errutil "github.com/Cordtus/ibc-apps/pkg/relay/util/error"
)

// SenderRef is a forward-declared Sender: a settable reference cell for the
// circular edge between a component that needs an outward-send capability and
// the stack that is still being assembled around it. The cell is set exactly
// once during composition and never mutated after.
type SenderRef struct {
	target Sender
}

// NewSenderRef returns an unset reference cell.
func NewSenderRef() *SenderRef {
	return &SenderRef{}
}

// Set pins the cell to its target. A second Set is a configuration error.
func (r *SenderRef) Set(target Sender) error {
	if r.target != nil {
		return errutil.Error{Code: errutil.BadConfiguration, Msg: "outward sender already finalized"}
	}
	if target == nil {
		return errutil.Error{Code: errutil.BadConfiguration, Msg: "outward sender target must not be nil"}
	}
	r.target = target
	return nil
}

// Resolved reports whether the cell has been set.
func (r *SenderRef) Resolved() bool { return r.target != nil }

// SendPacket implements Sender by delegating to the pinned target.
func (r *SenderRef) SendPacket(ctx context.Context, sourcePort, sourceChannel string, timeoutHeight types.Height, timeoutTimestamp uint64, data []byte) (uint64, error) {
	if r.target == nil {
		return 0, errutil.Error{Code: errutil.BadConfiguration, Msg: "outward sender not finalized"}
	}
	return r.target.SendPacket(ctx, sourcePort, sourceChannel, timeoutHeight, timeoutTimestamp, data)
}

// WriteAcknowledgement implements Sender by delegating to the pinned target.
func (r *SenderRef) WriteAcknowledgement(ctx context.Context, packet types.Packet, ack types.Acknowledgement) error {
	if r.target == nil {
		return errutil.Error{Code: errutil.BadConfiguration, Msg: "outward sender not finalized"}
	}
	return r.target.WriteAcknowledgement(ctx, packet, ack)
}
