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

// Package hooks lets a host attach optional behavior to packet-lifecycle
// points without implementing a full middleware. Each lifecycle point offers
// three capability slots: Override fully replaces the default (inner)
// behavior, Before runs prior to it, After runs following it. Capabilities
// are declared explicitly per hook set and resolved once at registration;
// nothing is probed per call.
//
// At most one registered set may override a given point. Before and After
// failures are recorded but never prevent the default behavior from running
// (Before) or from having already run (After).
package hooks

import (
	"context"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
)

// RecvPacketHooks are the capabilities for the receive lifecycle point. The
// override receives the inner handler so it may still delegate on the paths
// it does not replace.
type RecvPacketHooks struct {
	Override func(ctx context.Context, next middleware.Handler, packet types.Packet) types.Acknowledgement
	Before   func(ctx context.Context, packet types.Packet) error
	After    func(ctx context.Context, packet types.Packet, ack types.Acknowledgement) error
}

// AckPacketHooks are the capabilities for the acknowledgement lifecycle
// point.
type AckPacketHooks struct {
	Override func(ctx context.Context, next middleware.Handler, packet types.Packet, acknowledgement []byte) error
	Before   func(ctx context.Context, packet types.Packet, acknowledgement []byte) error
	After    func(ctx context.Context, packet types.Packet, acknowledgement []byte, err error) error
}

// TimeoutPacketHooks are the capabilities for the timeout lifecycle point.
type TimeoutPacketHooks struct {
	Override func(ctx context.Context, next middleware.Handler, packet types.Packet) error
	Before   func(ctx context.Context, packet types.Packet) error
	After    func(ctx context.Context, packet types.Packet, err error) error
}

// SendPacketHooks are the capabilities for the send lifecycle point. The
// override receives the outward sender.
type SendPacketHooks struct {
	Override func(ctx context.Context, outward middleware.Sender, sourcePort, sourceChannel string, timeoutHeight types.Height, timeoutTimestamp uint64, data []byte) (uint64, error)
	Before   func(ctx context.Context, sourcePort, sourceChannel string, data []byte) error
	After    func(ctx context.Context, sourcePort, sourceChannel string, sequence uint64, err error) error
}

// HookSet is one named bundle of capabilities. Empty slots mean "not
// interested in this point".
type HookSet struct {
	Name    string
	Recv    RecvPacketHooks
	Ack     AckPacketHooks
	Timeout TimeoutPacketHooks
	Send    SendPacketHooks
}
