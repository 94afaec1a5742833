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
)

// PassThrough is an embeddable Middleware that delegates every inbound
// callback to Next and every outbound call to Outward. Concrete middlewares
// embed it and override only the lifecycle points they intercept.
type PassThrough struct {
	Next    Handler
	Outward Sender
}

func (p PassThrough) OnChanOpenInit(ctx context.Context, order ChannelOrder, connectionHops []string, portID, channelID, version string) (string, error) {
	return p.Next.OnChanOpenInit(ctx, order, connectionHops, portID, channelID, version)
}

func (p PassThrough) OnChanOpenTry(ctx context.Context, order ChannelOrder, connectionHops []string, portID, channelID, counterpartyVersion string) (string, error) {
	return p.Next.OnChanOpenTry(ctx, order, connectionHops, portID, channelID, counterpartyVersion)
}

func (p PassThrough) OnChanOpenAck(ctx context.Context, portID, channelID, counterpartyChannelID, counterpartyVersion string) error {
	return p.Next.OnChanOpenAck(ctx, portID, channelID, counterpartyChannelID, counterpartyVersion)
}

func (p PassThrough) OnChanOpenConfirm(ctx context.Context, portID, channelID string) error {
	return p.Next.OnChanOpenConfirm(ctx, portID, channelID)
}

func (p PassThrough) OnChanCloseInit(ctx context.Context, portID, channelID string) error {
	return p.Next.OnChanCloseInit(ctx, portID, channelID)
}

func (p PassThrough) OnChanCloseConfirm(ctx context.Context, portID, channelID string) error {
	return p.Next.OnChanCloseConfirm(ctx, portID, channelID)
}

func (p PassThrough) OnRecvPacket(ctx context.Context, packet types.Packet) types.Acknowledgement {
	return p.Next.OnRecvPacket(ctx, packet)
}

func (p PassThrough) OnAcknowledgementPacket(ctx context.Context, packet types.Packet, acknowledgement []byte) error {
	return p.Next.OnAcknowledgementPacket(ctx, packet, acknowledgement)
}

func (p PassThrough) OnTimeoutPacket(ctx context.Context, packet types.Packet) error {
	return p.Next.OnTimeoutPacket(ctx, packet)
}

func (p PassThrough) SendPacket(ctx context.Context, sourcePort, sourceChannel string, timeoutHeight types.Height, timeoutTimestamp uint64, data []byte) (uint64, error) {
	return p.Outward.SendPacket(ctx, sourcePort, sourceChannel, timeoutHeight, timeoutTimestamp, data)
}

func (p PassThrough) WriteAcknowledgement(ctx context.Context, packet types.Packet, ack types.Acknowledgement) error {
	return p.Outward.WriteAcknowledgement(ctx, packet, ack)
}
