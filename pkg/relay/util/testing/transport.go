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
	"sync"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
)

type route struct {
	destPort    string
	destChannel string
}

type ackKey struct {
	channel  string
	sequence uint64
}

// MemoryTransport is an in-memory stand-in for the core transport layer of
// one chain: it assigns sequences, queues outbound packets for a relayer to
// pick up, and stores written acknowledgements.
type MemoryTransport struct {
	mu       sync.Mutex
	nextSeq  map[string]uint64
	routes   map[string]route
	outbox   []types.Packet
	written  map[ackKey][]byte
	sendErrs map[string]error
}

var _ middleware.Sender = (*MemoryTransport)(nil)

// NewMemoryTransport creates an empty transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		nextSeq:  map[string]uint64{},
		routes:   map[string]route{},
		written:  map[ackKey][]byte{},
		sendErrs: map[string]error{},
	}
}

// AddRoute maps a local source channel to its counterparty endpoint.
func (t *MemoryTransport) AddRoute(sourceChannel, destPort, destChannel string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[sourceChannel] = route{destPort: destPort, destChannel: destChannel}
}

// FailSendsOn makes SendPacket on the given channel fail with err, for
// injecting transport faults. A nil err clears the fault.
func (t *MemoryTransport) FailSendsOn(sourceChannel string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil {
		delete(t.sendErrs, sourceChannel)
		return
	}
	t.sendErrs[sourceChannel] = err
}

// SendPacket implements middleware.Sender.
func (t *MemoryTransport) SendPacket(_ context.Context, sourcePort, sourceChannel string, timeoutHeight types.Height, timeoutTimestamp uint64, data []byte) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.sendErrs[sourceChannel]; err != nil {
		return 0, err
	}
	r, ok := t.routes[sourceChannel]
	if !ok {
		return 0, fmt.Errorf("no route for channel %s", sourceChannel)
	}
	t.nextSeq[sourceChannel]++
	packet := types.Packet{
		Sequence:           t.nextSeq[sourceChannel],
		SourcePort:         sourcePort,
		SourceChannel:      sourceChannel,
		DestinationPort:    r.destPort,
		DestinationChannel: r.destChannel,
		Data:               data,
		TimeoutHeight:      timeoutHeight,
		TimeoutTimestamp:   timeoutTimestamp,
	}
	t.outbox = append(t.outbox, packet)
	return packet.Sequence, nil
}

// WriteAcknowledgement implements middleware.Sender. The packet is one this
// chain received; the acknowledgement is stored for the relayer to carry
// back.
func (t *MemoryTransport) WriteAcknowledgement(_ context.Context, packet types.Packet, ack types.Acknowledgement) error {
	bz, err := ack.Bytes()
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	key := ackKey{packet.DestinationChannel, packet.Sequence}
	if _, ok := t.written[key]; ok {
		return fmt.Errorf("acknowledgement for %s/%d already written", key.channel, key.sequence)
	}
	t.written[key] = bz
	return nil
}

// PopOutbound removes and returns the oldest outbound packet.
func (t *MemoryTransport) PopOutbound() (types.Packet, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.outbox) == 0 {
		return types.Packet{}, false
	}
	packet := t.outbox[0]
	t.outbox = t.outbox[1:]
	return packet, true
}

// OutboundCount reports the queued outbound packets.
func (t *MemoryTransport) OutboundCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.outbox)
}

// TakeWrittenAck removes and returns the acknowledgement written for a
// received packet, if any.
func (t *MemoryTransport) TakeWrittenAck(destChannel string, sequence uint64) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := ackKey{destChannel, sequence}
	bz, ok := t.written[key]
	if ok {
		delete(t.written, key)
	}
	return bz, ok
}
