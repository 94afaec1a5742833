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
	"context"

	"github.com/go-logr/logr"

	"github.com/Cordtus/ibc-apps/pkg/relay/metrics"
	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
	logutil "github.com/Cordtus/ibc-apps/pkg/relay/util/logging"
)

// Middleware enforces quota admission on transfer packets. Packets whose
// data is not a transfer payload are not subject to quotas and pass through
// untouched.
//
// A rejected send surfaces as an error from SendPacket, which the
// originating layer (application or forwarder) converts into a failure
// acknowledgement for its own caller. A rejected receive never reaches the
// inner handler; the middleware answers with a failure acknowledgement that
// the transport carries back to the source chain, where the ack path reverts
// the optimistic send record.
type Middleware struct {
	middleware.PassThrough
	limiter *Limiter
}

// NewMiddleware wraps next with quota admission backed by limiter.
func NewMiddleware(limiter *Limiter, next middleware.Handler, sender middleware.Sender) *Middleware {
	return &Middleware{
		PassThrough: middleware.PassThrough{Next: next, Outward: sender},
		limiter:     limiter,
	}
}

// SendPacket checks the send quota before relaying outward. The send is
// recorded optimistically; a failure acknowledgement or timeout for the
// packet reverts it later.
func (m *Middleware) SendPacket(ctx context.Context, sourcePort, sourceChannel string, timeoutHeight types.Height, timeoutTimestamp uint64, data []byte) (uint64, error) {
	payload, err := types.ParseTransferPayload(data)
	if err != nil {
		return m.Outward.SendPacket(ctx, sourcePort, sourceChannel, timeoutHeight, timeoutTimestamp, data)
	}
	amount, err := payload.AmountInt()
	if err != nil {
		return 0, err
	}

	if err := m.limiter.CheckSend(ctx, sourceChannel, payload.Denom, amount); err != nil {
		metrics.RecordRateLimitRejection(sourceChannel, payload.Denom, metrics.DirectionSend)
		logr.FromContextOrDiscard(ctx).V(logutil.DEFAULT).Info("send rejected by quota",
			"channel", sourceChannel, "valueClass", payload.Denom, "amount", amount.String())
		return 0, err
	}

	m.limiter.RecordSend(sourceChannel, payload.Denom, amount)
	seq, err := m.Outward.SendPacket(ctx, sourcePort, sourceChannel, timeoutHeight, timeoutTimestamp, data)
	if err != nil {
		// The packet never left; the optimistic record must not count
		// against the window.
		m.limiter.RevertSend(sourceChannel, payload.Denom, amount)
		return 0, err
	}
	return seq, nil
}

// OnRecvPacket checks the receive quota before handing the packet inward.
func (m *Middleware) OnRecvPacket(ctx context.Context, packet types.Packet) types.Acknowledgement {
	payload, err := types.ParseTransferPayload(packet.Data)
	if err != nil {
		return m.Next.OnRecvPacket(ctx, packet)
	}
	amount, err := payload.AmountInt()
	if err != nil {
		return types.NewErrorAcknowledgement(err)
	}

	channel := packet.DestinationChannel
	if err := m.limiter.CheckReceive(ctx, channel, payload.Denom, amount); err != nil {
		metrics.RecordRateLimitRejection(channel, payload.Denom, metrics.DirectionReceive)
		logr.FromContextOrDiscard(ctx).V(logutil.DEFAULT).Info("receive rejected by quota",
			"channel", channel, "valueClass", payload.Denom, "amount", amount.String())
		return types.NewErrorAcknowledgement(err)
	}

	m.limiter.RecordReceive(channel, payload.Denom, amount)
	ack := m.Next.OnRecvPacket(ctx, packet)
	if !ack.Success() && !ack.Deferred() {
		// The inner handler refused the packet, so no value moved.
		m.limiter.RevertReceive(channel, payload.Denom, amount)
	}
	return ack
}

// OnAcknowledgementPacket reverts the optimistic send record when the
// counterparty answered with a failure acknowledgement.
func (m *Middleware) OnAcknowledgementPacket(ctx context.Context, packet types.Packet, acknowledgement []byte) error {
	if payload, err := types.ParseTransferPayload(packet.Data); err == nil {
		if ack, err := types.ParseAcknowledgement(acknowledgement); err == nil && !ack.Success() {
			m.revertSend(ctx, packet.SourceChannel, payload)
		}
	}
	return m.Next.OnAcknowledgementPacket(ctx, packet, acknowledgement)
}

// OnTimeoutPacket reverts the optimistic send record for the timed-out send.
func (m *Middleware) OnTimeoutPacket(ctx context.Context, packet types.Packet) error {
	if payload, err := types.ParseTransferPayload(packet.Data); err == nil {
		m.revertSend(ctx, packet.SourceChannel, payload)
	}
	return m.Next.OnTimeoutPacket(ctx, packet)
}

func (m *Middleware) revertSend(ctx context.Context, channel string, payload types.TransferPayload) {
	amount, err := payload.AmountInt()
	if err != nil {
		return
	}
	m.limiter.RevertSend(channel, payload.Denom, amount)
	metrics.RecordRateLimitRevert(channel, payload.Denom, metrics.DirectionSend)
	logr.FromContextOrDiscard(ctx).V(logutil.DEBUG).Info("reverted optimistic send record",
		"channel", channel, "valueClass", payload.Denom, "amount", amount.String())
}
