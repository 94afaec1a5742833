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
	"context"

	"github.com/go-logr/logr"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
	logutil "github.com/Cordtus/ibc-apps/pkg/relay/util/logging"
)

// Middleware parses callback registrations out of packet memos and
// dispatches them at the matching lifecycle points. The packet's own
// disposition is computed first and is never altered by callback outcomes:
// with callbacks disabled or failing, every acknowledgement and error below
// is byte-for-byte the same.
type Middleware struct {
	middleware.PassThrough
	dispatcher *Dispatcher
}

// NewMiddleware wraps next with callback dispatch.
func NewMiddleware(dispatcher *Dispatcher, next middleware.Handler, sender middleware.Sender) *Middleware {
	return &Middleware{
		PassThrough: middleware.PassThrough{Next: next, Outward: sender},
		dispatcher:  dispatcher,
	}
}

// SendPacket relays the send outward, then fires the source callback for the
// packet that actually left.
func (m *Middleware) SendPacket(ctx context.Context, sourcePort, sourceChannel string, timeoutHeight types.Height, timeoutTimestamp uint64, data []byte) (uint64, error) {
	sequence, err := m.Outward.SendPacket(ctx, sourcePort, sourceChannel, timeoutHeight, timeoutTimestamp, data)
	if err != nil {
		return 0, err
	}
	if registration, ok := m.sourceRegistration(ctx, data); ok {
		m.dispatcher.Dispatch(ctx, registration, ContractCall{
			Type: CallbackTypeSource,
			Packet: types.Packet{
				Sequence:         sequence,
				SourcePort:       sourcePort,
				SourceChannel:    sourceChannel,
				Data:             data,
				TimeoutHeight:    timeoutHeight,
				TimeoutTimestamp: timeoutTimestamp,
			},
		})
	}
	return sequence, nil
}

// OnRecvPacket computes the inner acknowledgement, then fires the
// destination callback with it.
func (m *Middleware) OnRecvPacket(ctx context.Context, packet types.Packet) types.Acknowledgement {
	ack := m.Next.OnRecvPacket(ctx, packet)
	if registration, ok := m.destinationRegistration(ctx, packet.Data); ok {
		ackBytes, err := ack.Bytes()
		if err != nil {
			ackBytes = nil // deferred: the callback sees no acknowledgement
		}
		m.dispatcher.Dispatch(ctx, registration, ContractCall{
			Type:            CallbackTypeDestination,
			Packet:          packet,
			Acknowledgement: ackBytes,
		})
	}
	return ack
}

// OnAcknowledgementPacket delegates inward, then fires the source callback
// for the acknowledgement.
func (m *Middleware) OnAcknowledgementPacket(ctx context.Context, packet types.Packet, acknowledgement []byte) error {
	err := m.Next.OnAcknowledgementPacket(ctx, packet, acknowledgement)
	if err != nil {
		return err
	}
	if registration, ok := m.sourceRegistration(ctx, packet.Data); ok {
		m.dispatcher.Dispatch(ctx, registration, ContractCall{
			Type:            CallbackTypeAcknowledgement,
			Packet:          packet,
			Acknowledgement: acknowledgement,
		})
	}
	return nil
}

// OnTimeoutPacket delegates inward, then fires the source callback for the
// timeout.
func (m *Middleware) OnTimeoutPacket(ctx context.Context, packet types.Packet) error {
	err := m.Next.OnTimeoutPacket(ctx, packet)
	if err != nil {
		return err
	}
	if registration, ok := m.sourceRegistration(ctx, packet.Data); ok {
		m.dispatcher.Dispatch(ctx, registration, ContractCall{
			Type:   CallbackTypeTimeout,
			Packet: packet,
		})
	}
	return nil
}

func (m *Middleware) sourceRegistration(ctx context.Context, data []byte) (Registration, bool) {
	return m.registration(ctx, data, ParseSourceCallback)
}

func (m *Middleware) destinationRegistration(ctx context.Context, data []byte) (Registration, bool) {
	return m.registration(ctx, data, ParseDestinationCallback)
}

// registration parses the callback request for one side. A malformed
// registration is recorded and skipped; it never fails the transfer.
func (m *Middleware) registration(ctx context.Context, data []byte, parse func(string) (*Registration, bool, error)) (Registration, bool) {
	payload, err := types.ParseTransferPayload(data)
	if err != nil {
		return Registration{}, false
	}
	registration, ok, err := parse(payload.Memo)
	if err != nil {
		logr.FromContextOrDiscard(ctx).V(logutil.DEFAULT).Info("ignoring malformed callback registration", "err", err.Error())
		return Registration{}, false
	}
	if !ok {
		return Registration{}, false
	}
	return *registration, true
}
