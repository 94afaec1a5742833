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

// Package middleware defines the packet-lifecycle handler contract shared by
// every stack layer and the terminal application, and the two-phase builder
// that composes layers into an ordered, immutable chain.
//
// Inbound events (receive, acknowledgement, timeout) enter at the top of the
// stack and flow inward toward the terminal application. Outbound sends flow
// the other way: each layer holds the Sender of the layer outward of it, and
// the terminal application sends through a SenderRef that the builder pins to
// a specific layer during Finalize. Packets originated mid-stack (a forwarded
// hop, for example) therefore traverse the same outer layers as
// application-originated packets.
package middleware
