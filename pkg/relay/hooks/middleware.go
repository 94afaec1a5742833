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

package hooks

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
	logutil "github.com/Cordtus/ibc-apps/pkg/relay/util/logging"
)

// resolved is the per-lifecycle-point view computed once at registration:
// the single override holder (if any) plus the before/after chains in
// registration order.
type resolved struct {
	overrideSet string // name of the set holding the override, for logs

	recvOverride    func(ctx context.Context, next middleware.Handler, packet types.Packet) types.Acknowledgement
	ackOverride     func(ctx context.Context, next middleware.Handler, packet types.Packet, acknowledgement []byte) error
	timeoutOverride func(ctx context.Context, next middleware.Handler, packet types.Packet) error
	sendOverride    func(ctx context.Context, outward middleware.Sender, sourcePort, sourceChannel string, timeoutHeight types.Height, timeoutTimestamp uint64, data []byte) (uint64, error)
}

// Middleware runs registered hook sets around the inner handler.
type Middleware struct {
	middleware.PassThrough
	sets     []HookSet
	resolved resolved
}

// NewMiddleware wraps next with the given resolved hook sets.
func NewMiddleware(sets []HookSet, r resolved, next middleware.Handler, sender middleware.Sender) *Middleware {
	return &Middleware{
		PassThrough: middleware.PassThrough{Next: next, Outward: sender},
		sets:        sets,
		resolved:    r,
	}
}

// OnRecvPacket runs before hooks, then the override or the inner handler,
// then after hooks.
func (m *Middleware) OnRecvPacket(ctx context.Context, packet types.Packet) types.Acknowledgement {
	for _, set := range m.sets {
		if set.Recv.Before != nil {
			m.recordHookError(ctx, set.Name, "recv/before", set.Recv.Before(ctx, packet))
		}
	}

	var ack types.Acknowledgement
	if m.resolved.recvOverride != nil {
		ack = m.resolved.recvOverride(ctx, m.Next, packet)
	} else {
		ack = m.Next.OnRecvPacket(ctx, packet)
	}

	for _, set := range m.sets {
		if set.Recv.After != nil {
			m.recordHookError(ctx, set.Name, "recv/after", set.Recv.After(ctx, packet, ack))
		}
	}
	return ack
}

// OnAcknowledgementPacket runs the acknowledgement hooks around the inner
// handler.
func (m *Middleware) OnAcknowledgementPacket(ctx context.Context, packet types.Packet, acknowledgement []byte) error {
	for _, set := range m.sets {
		if set.Ack.Before != nil {
			m.recordHookError(ctx, set.Name, "ack/before", set.Ack.Before(ctx, packet, acknowledgement))
		}
	}

	var err error
	if m.resolved.ackOverride != nil {
		err = m.resolved.ackOverride(ctx, m.Next, packet, acknowledgement)
	} else {
		err = m.Next.OnAcknowledgementPacket(ctx, packet, acknowledgement)
	}

	for _, set := range m.sets {
		if set.Ack.After != nil {
			m.recordHookError(ctx, set.Name, "ack/after", set.Ack.After(ctx, packet, acknowledgement, err))
		}
	}
	return err
}

// OnTimeoutPacket runs the timeout hooks around the inner handler.
func (m *Middleware) OnTimeoutPacket(ctx context.Context, packet types.Packet) error {
	for _, set := range m.sets {
		if set.Timeout.Before != nil {
			m.recordHookError(ctx, set.Name, "timeout/before", set.Timeout.Before(ctx, packet))
		}
	}

	var err error
	if m.resolved.timeoutOverride != nil {
		err = m.resolved.timeoutOverride(ctx, m.Next, packet)
	} else {
		err = m.Next.OnTimeoutPacket(ctx, packet)
	}

	for _, set := range m.sets {
		if set.Timeout.After != nil {
			m.recordHookError(ctx, set.Name, "timeout/after", set.Timeout.After(ctx, packet, err))
		}
	}
	return err
}

// SendPacket runs the send hooks around the outward sender.
func (m *Middleware) SendPacket(ctx context.Context, sourcePort, sourceChannel string, timeoutHeight types.Height, timeoutTimestamp uint64, data []byte) (uint64, error) {
	for _, set := range m.sets {
		if set.Send.Before != nil {
			m.recordHookError(ctx, set.Name, "send/before", set.Send.Before(ctx, sourcePort, sourceChannel, data))
		}
	}

	var sequence uint64
	var err error
	if m.resolved.sendOverride != nil {
		sequence, err = m.resolved.sendOverride(ctx, m.Outward, sourcePort, sourceChannel, timeoutHeight, timeoutTimestamp, data)
	} else {
		sequence, err = m.Outward.SendPacket(ctx, sourcePort, sourceChannel, timeoutHeight, timeoutTimestamp, data)
	}

	for _, set := range m.sets {
		if set.Send.After != nil {
			m.recordHookError(ctx, set.Name, "send/after", set.Send.After(ctx, sourcePort, sourceChannel, sequence, err))
		}
	}
	return sequence, err
}

// recordHookError records a failed before/after hook. The failure is
// observable but never changes the packet's disposition.
func (m *Middleware) recordHookError(ctx context.Context, setName, point string, err error) {
	if err == nil {
		return
	}
	logr.FromContextOrDiscard(ctx).V(logutil.DEFAULT).Info("hook failed",
		"hookSet", setName, "point", point, "err", err.Error())
}
