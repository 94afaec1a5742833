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

package testing

import (
	"context"
	"fmt"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
)

// Chain bundles one side of a relayed path: its transport and the top of
// its middleware stack.
type Chain struct {
	Name      string
	Transport *MemoryTransport
	Handler   middleware.Handler
}

type deferredAck struct {
	from   *Chain
	packet types.Packet
}

// Relayer moves packets and acknowledgements between two chains the way the
// external transport layer would: synchronously and in order. Deferred
// acknowledgements are carried back once the destination chain writes them.
type Relayer struct {
	chains   [2]*Chain
	deferred map[ackKey]deferredAck
}

// NewRelayer joins two chains.
func NewRelayer(a, b *Chain) *Relayer {
	return &Relayer{
		chains:   [2]*Chain{a, b},
		deferred: map[ackKey]deferredAck{},
	}
}

func (r *Relayer) peerOf(c *Chain) *Chain {
	if r.chains[0] == c {
		return r.chains[1]
	}
	return r.chains[0]
}

// RelayNext delivers the oldest outbound packet from the given chain to its
// peer. If the peer produces an immediate acknowledgement it is carried
// straight back; a deferred acknowledgement is parked until FlushAcks finds
// it written.
func (r *Relayer) RelayNext(ctx context.Context, from *Chain) error {
	packet, ok := from.Transport.PopOutbound()
	if !ok {
		return fmt.Errorf("chain %s has no outbound packets", from.Name)
	}
	to := r.peerOf(from)

	ack := to.Handler.OnRecvPacket(ctx, packet)
	if ack.Deferred() {
		r.deferred[ackKey{packet.DestinationChannel, packet.Sequence}] = deferredAck{from: from, packet: packet}
		return nil
	}
	bz, err := ack.Bytes()
	if err != nil {
		return err
	}
	return from.Handler.OnAcknowledgementPacket(ctx, packet, bz)
}

// TimeoutNext expires the oldest outbound packet from the given chain: it is
// never delivered and the timeout event is handed back to the sender's
// stack.
func (r *Relayer) TimeoutNext(ctx context.Context, from *Chain) error {
	packet, ok := from.Transport.PopOutbound()
	if !ok {
		return fmt.Errorf("chain %s has no outbound packets", from.Name)
	}
	return from.Handler.OnTimeoutPacket(ctx, packet)
}

// FlushAcks carries back acknowledgements that were deferred earlier and
// have since been written. It returns the number delivered.
func (r *Relayer) FlushAcks(ctx context.Context) (int, error) {
	delivered := 0
	for key, entry := range r.deferred {
		to := r.peerOf(entry.from)
		bz, ok := to.Transport.TakeWrittenAck(key.channel, key.sequence)
		if !ok {
			continue
		}
		delete(r.deferred, key)
		if err := entry.from.Handler.OnAcknowledgementPacket(ctx, entry.packet, bz); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

// PendingAcks reports the deferred acknowledgements not yet written.
func (r *Relayer) PendingAcks() int {
	return len(r.deferred)
}
