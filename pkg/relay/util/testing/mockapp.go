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
	"sync"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
)

// AckCall records one OnAcknowledgementPacket delivery to the mock app.
type AckCall struct {
	Packet          types.Packet
	Acknowledgement []byte
}

// MockApp is a terminal application for tests. It records every lifecycle
// call and answers receives with a configurable acknowledgement.
type MockApp struct {
	// Sender is the outward-send capability, usually a Builder's AppSender.
	Sender middleware.Sender

	// RecvAck overrides the acknowledgement returned by OnRecvPacket.
	RecvAck func(packet types.Packet) types.Acknowledgement

	mu       sync.Mutex
	received []types.Packet
	acks     []AckCall
	timeouts []types.Packet
}

var _ middleware.Handler = (*MockApp)(nil)

// NewMockApp creates a mock app sending through the given sender.
func NewMockApp(sender middleware.Sender) *MockApp {
	return &MockApp{Sender: sender}
}

// DefaultAckResult is the success result the mock app answers with.
var DefaultAckResult = []byte(`AQ==`)

func (a *MockApp) OnChanOpenInit(_ context.Context, _ middleware.ChannelOrder, _ []string, _, _, version string) (string, error) {
	return version, nil
}

func (a *MockApp) OnChanOpenTry(_ context.Context, _ middleware.ChannelOrder, _ []string, _, _, counterpartyVersion string) (string, error) {
	return counterpartyVersion, nil
}

func (a *MockApp) OnChanOpenAck(context.Context, string, string, string, string) error { return nil }
func (a *MockApp) OnChanOpenConfirm(context.Context, string, string) error             { return nil }
func (a *MockApp) OnChanCloseInit(context.Context, string, string) error               { return nil }
func (a *MockApp) OnChanCloseConfirm(context.Context, string, string) error            { return nil }

func (a *MockApp) OnRecvPacket(_ context.Context, packet types.Packet) types.Acknowledgement {
	a.mu.Lock()
	a.received = append(a.received, packet)
	a.mu.Unlock()
	if a.RecvAck != nil {
		return a.RecvAck(packet)
	}
	return types.NewResultAcknowledgement(DefaultAckResult)
}

func (a *MockApp) OnAcknowledgementPacket(_ context.Context, packet types.Packet, acknowledgement []byte) error {
	a.mu.Lock()
	a.acks = append(a.acks, AckCall{Packet: packet, Acknowledgement: acknowledgement})
	a.mu.Unlock()
	return nil
}

func (a *MockApp) OnTimeoutPacket(_ context.Context, packet types.Packet) error {
	a.mu.Lock()
	a.timeouts = append(a.timeouts, packet)
	a.mu.Unlock()
	return nil
}

// SendTransfer originates a transfer through the app's outward sender.
func (a *MockApp) SendTransfer(ctx context.Context, sourcePort, sourceChannel string, payload types.TransferPayload, timeoutTimestamp uint64) (uint64, error) {
	data, err := payload.Bytes()
	if err != nil {
		return 0, err
	}
	return a.Sender.SendPacket(ctx, sourcePort, sourceChannel, types.Height{}, timeoutTimestamp, data)
}

// Received returns the packets delivered to the app.
func (a *MockApp) Received() []types.Packet {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.Packet(nil), a.received...)
}

// Acks returns the acknowledgement deliveries the app saw.
func (a *MockApp) Acks() []AckCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]AckCall(nil), a.acks...)
}

// Timeouts returns the timeout deliveries the app saw.
func (a *MockApp) Timeouts() []types.Packet {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]types.Packet(nil), a.timeouts...)
}
