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
	"math/big"
	"time"

	"github.com/Cordtus/ibc-apps/pkg/relay/types"
)

// Escrow is the value-holding collaborator. Lock is called when a received
// packet is forwarded onward; Refund reverses it when the forward fails for
// good. Both happen within the same atomic unit of work as the triggering
// lifecycle event.
type Escrow interface {
	Lock(ctx context.Context, channelID, valueClass string, amount *big.Int, owner string) error
	Refund(ctx context.Context, channelID, valueClass string, amount *big.Int, owner string) error
}

// packetKey identifies an in-flight forwarded packet by the source channel
// and sequence of the hop this chain emitted.
type packetKey struct {
	channel  string
	sequence uint64
}

// InFlightForward tracks one packet currently being multi-hop-forwarded.
// Only the immediate next hop is tracked; resolution propagates one hop at a
// time. Entries are created on the forward decision and removed on terminal
// resolution.
type InFlightForward struct {
	// OriginalPacket is the inbound packet whose acknowledgement was
	// deferred. It receives exactly one acknowledgement when this entry
	// resolves.
	OriginalPacket types.Packet

	ValueClass string
	Amount     *big.Int
	// Refundee is the local intermediate receiver the escrow was locked
	// against; refunds return value there.
	Refundee string

	RetriesRemaining uint8
	Timeout          time.Duration

	// Next-hop parameters, kept so a retry can emit an equivalent packet.
	HopPort    string
	HopChannel string
	HopData    []byte
}
