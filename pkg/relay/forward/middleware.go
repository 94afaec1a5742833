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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/Cordtus/ibc-apps/pkg/relay/metrics"
	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
	errutil "github.com/Cordtus/ibc-apps/pkg/relay/util/error"
	logutil "github.com/Cordtus/ibc-apps/pkg/relay/util/logging"
)

const (
	// DefaultTimeout bounds a forwarded hop when the memo does not name one.
	DefaultTimeout = 5 * time.Minute
	// DefaultRetries applies when the memo does not name a retry budget.
	DefaultRetries uint8 = 0
)

// Middleware is the multi-hop forwarding engine. On receiving a packet whose
// memo carries a forward instruction it accepts the value locally, escrows
// it, emits a new packet toward the next hop through its outward sender (so
// the hop is seen by every outer layer, the rate limiter included), and
// defers the original acknowledgement until the hop resolves.
//
// The middleware exclusively owns the in-flight forward ledger. Per
// forwarded unit the states are pending, then either resolved-success or,
// after the retry budget is spent, resolved-failure-refunded; terminal
// states remove the ledger entry and write exactly one acknowledgement for
// the original packet.
type Middleware struct {
	middleware.PassThrough

	escrow         Escrow
	defaultTimeout time.Duration
	defaultRetries uint8
	now            func() time.Time

	mu       sync.Mutex
	inFlight map[packetKey]*InFlightForward
}

// NewMiddleware wraps next with multi-hop forwarding.
func NewMiddleware(escrow Escrow, defaultTimeout time.Duration, defaultRetries uint8, now func() time.Time, next middleware.Handler, sender middleware.Sender) *Middleware {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Middleware{
		PassThrough:    middleware.PassThrough{Next: next, Outward: sender},
		escrow:         escrow,
		defaultTimeout: defaultTimeout,
		defaultRetries: defaultRetries,
		now:            now,
		inFlight:       map[packetKey]*InFlightForward{},
	}
}

// InFlightCount reports the number of unresolved forwards, for inspection.
func (m *Middleware) InFlightCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inFlight)
}

// OnRecvPacket intercepts packets carrying a forward instruction. Everything
// else is delegated unchanged.
func (m *Middleware) OnRecvPacket(ctx context.Context, packet types.Packet) types.Acknowledgement {
	logger := logr.FromContextOrDiscard(ctx)

	payload, err := types.ParseTransferPayload(packet.Data)
	if err != nil {
		return m.Next.OnRecvPacket(ctx, packet)
	}
	metadata, ok, err := ParseForwardMetadata(payload.Memo)
	if err != nil {
		return types.NewErrorAcknowledgement(err)
	}
	if !ok {
		return m.Next.OnRecvPacket(ctx, packet)
	}

	// Accept the transferred value locally first: the inner application
	// credits the intermediate receiver, and that credit backs the escrow
	// for the next hop.
	inner := m.Next.OnRecvPacket(ctx, packet)
	if !inner.Success() {
		return inner
	}

	amount, err := payload.AmountInt()
	if err != nil {
		return types.NewErrorAcknowledgement(err)
	}
	if err := m.escrow.Lock(ctx, metadata.Channel, payload.Denom, amount, payload.Receiver); err != nil {
		return types.NewErrorAcknowledgement(fmt.Errorf("failed to escrow forwarded value: %w", err))
	}

	hopPayload := types.TransferPayload{
		Denom:    payload.Denom,
		Amount:   payload.Amount,
		Sender:   payload.Receiver,
		Receiver: metadata.Receiver,
		Memo:     metadata.NextMemo(),
	}
	hopData, err := hopPayload.Bytes()
	if err != nil {
		return types.NewErrorAcknowledgement(err)
	}

	timeout := metadata.Timeout.Duration()
	if timeout <= 0 {
		timeout = m.defaultTimeout
	}
	retries := m.defaultRetries
	if metadata.Retries != nil {
		retries = *metadata.Retries
	}

	entry := &InFlightForward{
		OriginalPacket:   packet,
		ValueClass:       payload.Denom,
		Amount:           amount,
		Refundee:         payload.Receiver,
		RetriesRemaining: retries,
		Timeout:          timeout,
		HopPort:          metadata.Port,
		HopChannel:       metadata.Channel,
		HopData:          hopData,
	}

	sequence, err := m.sendHop(ctx, entry)
	if err != nil {
		// The hop never left (rejected by an outer layer, most likely the
		// rate limiter). Unwind the escrow and fail the original packet.
		if refundErr := m.escrow.Refund(ctx, metadata.Channel, payload.Denom, amount, payload.Receiver); refundErr != nil {
			logger.Error(refundErr, "failed to refund after rejected forward",
				"channel", metadata.Channel, "valueClass", payload.Denom, "amount", amount.String())
			return types.NewErrorAcknowledgement(errutil.Error{
				Code: errutil.RefundFailed,
				Msg:  fmt.Sprintf("refund after rejected forward failed: %v", refundErr),
			})
		}
		return types.NewErrorAcknowledgement(err)
	}

	m.mu.Lock()
	m.inFlight[packetKey{metadata.Channel, sequence}] = entry
	m.mu.Unlock()
	metrics.RecordForwardStarted(metadata.Channel)

	logger.V(logutil.DEBUG).Info("forwarding packet to next hop",
		"srcChannel", packet.SourceChannel, "sequence", packet.Sequence,
		"hopChannel", metadata.Channel, "hopSequence", sequence,
		"receiver", metadata.Receiver, "retries", retries)

	return types.NewDeferredAcknowledgement()
}

// OnAcknowledgementPacket resolves the in-flight forward matching the
// acknowledged packet, if any. Acknowledgements for packets this middleware
// did not originate are delegated inward.
func (m *Middleware) OnAcknowledgementPacket(ctx context.Context, packet types.Packet, acknowledgement []byte) error {
	key := packetKey{packet.SourceChannel, packet.Sequence}
	m.mu.Lock()
	entry, ok := m.inFlight[key]
	m.mu.Unlock()
	if !ok {
		return m.Next.OnAcknowledgementPacket(ctx, packet, acknowledgement)
	}

	ack, err := types.ParseAcknowledgement(acknowledgement)
	if err == nil && ack.Success() {
		return m.resolveSuccess(ctx, key, entry, ack)
	}
	return m.retryOrRefund(ctx, key, entry)
}

// OnTimeoutPacket retries or refunds the in-flight forward matching the
// timed-out packet, if any.
func (m *Middleware) OnTimeoutPacket(ctx context.Context, packet types.Packet) error {
	key := packetKey{packet.SourceChannel, packet.Sequence}
	m.mu.Lock()
	entry, ok := m.inFlight[key]
	m.mu.Unlock()
	if !ok {
		return m.Next.OnTimeoutPacket(ctx, packet)
	}
	return m.retryOrRefund(ctx, key, entry)
}

func (m *Middleware) resolveSuccess(ctx context.Context, key packetKey, entry *InFlightForward, hopAck types.Acknowledgement) error {
	if err := m.Outward.WriteAcknowledgement(ctx, entry.OriginalPacket, types.NewResultAcknowledgement(hopAck.Result())); err != nil {
		return err
	}
	m.deleteEntry(key)
	metrics.RecordForwardResolved(key.channel, metrics.OutcomeSuccess)
	logr.FromContextOrDiscard(ctx).V(logutil.DEBUG).Info("forward resolved",
		"hopChannel", key.channel, "hopSequence", key.sequence,
		"originalChannel", entry.OriginalPacket.SourceChannel, "originalSequence", entry.OriginalPacket.Sequence)
	return nil
}

func (m *Middleware) retryOrRefund(ctx context.Context, key packetKey, entry *InFlightForward) error {
	logger := logr.FromContextOrDiscard(ctx)

	if entry.RetriesRemaining > 0 {
		entry.RetriesRemaining--
		sequence, err := m.sendHop(ctx, entry)
		if err == nil {
			m.mu.Lock()
			delete(m.inFlight, key)
			m.inFlight[packetKey{entry.HopChannel, sequence}] = entry
			m.mu.Unlock()
			metrics.RecordForwardRetry(entry.HopChannel)
			logger.V(logutil.DEBUG).Info("retrying forwarded hop",
				"hopChannel", entry.HopChannel, "hopSequence", sequence, "retriesRemaining", entry.RetriesRemaining)
			return nil
		}
		logger.V(logutil.DEFAULT).Info("retry send failed, refunding",
			"hopChannel", entry.HopChannel, "err", err.Error())
	}

	// Retry budget spent. Reverse the escrow and fail the original packet.
	// A refund failure means the value-holding account cannot make the
	// refundee whole; that is fatal to this packet's processing and must
	// never be swallowed.
	if err := m.escrow.Refund(ctx, entry.HopChannel, entry.ValueClass, entry.Amount, entry.Refundee); err != nil {
		logger.Error(err, "refund of forwarded value failed",
			"hopChannel", entry.HopChannel, "valueClass", entry.ValueClass,
			"amount", entry.Amount.String(), "refundee", entry.Refundee)
		return errutil.Error{
			Code: errutil.RefundFailed,
			Msg:  fmt.Sprintf("refund of %s %s to %s failed: %v", entry.Amount, entry.ValueClass, entry.Refundee, err),
		}
	}

	failure := types.NewErrorAcknowledgement(errutil.Error{
		Code: errutil.ForwardFailed,
		Msg:  fmt.Sprintf("forwarding to %s/%s failed after exhausting retries", entry.HopPort, entry.HopChannel),
	})
	if err := m.Outward.WriteAcknowledgement(ctx, entry.OriginalPacket, failure); err != nil {
		return err
	}
	m.deleteEntry(key)
	metrics.RecordForwardResolved(key.channel, metrics.OutcomeRefunded)
	logger.V(logutil.DEFAULT).Info("forward refunded",
		"hopChannel", key.channel, "hopSequence", key.sequence,
		"originalChannel", entry.OriginalPacket.SourceChannel, "originalSequence", entry.OriginalPacket.Sequence)
	return nil
}

func (m *Middleware) sendHop(ctx context.Context, entry *InFlightForward) (uint64, error) {
	timeoutTimestamp := uint64(m.now().Add(entry.Timeout).UnixNano())
	return m.Outward.SendPacket(ctx, entry.HopPort, entry.HopChannel, types.Height{}, timeoutTimestamp, entry.HopData)
}

func (m *Middleware) deleteEntry(key packetKey) {
	m.mu.Lock()
	delete(m.inFlight, key)
	m.mu.Unlock()
}
