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

	"github.com/Cordtus/ibc-apps/pkg/relay/plugins"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
)

// ChannelOrder is the ordering guarantee negotiated for a channel.
type ChannelOrder string

const (
	OrderedChannel   ChannelOrder = "ORDERED"
	UnorderedChannel ChannelOrder = "UNORDERED"
)

// Handler is the packet-lifecycle contract implemented by every stack layer
// and by the terminal application.
//
// Channel handshake callbacks may adjust the negotiated version; middlewares
// that do not participate in version negotiation delegate unchanged.
// OnRecvPacket returns the acknowledgement disposition for the packet; a
// deferred acknowledgement means a later WriteAcknowledgement will resolve
// it.
type Handler interface {
	OnChanOpenInit(ctx context.Context, order ChannelOrder, connectionHops []string, portID, channelID, version string) (string, error)
	OnChanOpenTry(ctx context.Context, order ChannelOrder, connectionHops []string, portID, channelID, counterpartyVersion string) (string, error)
	OnChanOpenAck(ctx context.Context, portID, channelID, counterpartyChannelID, counterpartyVersion string) error
	OnChanOpenConfirm(ctx context.Context, portID, channelID string) error
	OnChanCloseInit(ctx context.Context, portID, channelID string) error
	OnChanCloseConfirm(ctx context.Context, portID, channelID string) error

	OnRecvPacket(ctx context.Context, packet types.Packet) types.Acknowledgement
	OnAcknowledgementPacket(ctx context.Context, packet types.Packet, acknowledgement []byte) error
	OnTimeoutPacket(ctx context.Context, packet types.Packet) error
}

// Sender is the outward-send capability: originate a packet toward the
// transport, or write the acknowledgement for a previously received packet.
type Sender interface {
	SendPacket(ctx context.Context, sourcePort, sourceChannel string, timeoutHeight types.Height, timeoutTimestamp uint64, data []byte) (uint64, error)
	WriteAcknowledgement(ctx context.Context, packet types.Packet, ack types.Acknowledgement) error
}

// Middleware is one stack layer: it handles inbound lifecycle events and
// relays (or intercepts) outbound sends.
type Middleware interface {
	Handler
	Sender
}

// Layer is an instantiated middleware definition that can be placed into a
// stack. Wrap builds the layer's node around the next handler inward; sender
// is the outward-send capability of whatever sits outward of this layer,
// resolved by the builder after all nodes exist.
type Layer interface {
	plugins.Plugin
	Wrap(next Handler, sender Sender) Middleware
}

// LayerFactory is the function form of Layer.Wrap, for stacks assembled in
// code rather than from configuration.
type LayerFactory func(next Handler, sender Sender) Middleware
