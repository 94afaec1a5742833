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
	errutil "github.com/Cordtus/ibc-apps/pkg/relay/util/error"
)

// Builder assembles an ordered, immutable chain of middleware layers around a
// terminal application.
//
// Layers are added innermost first: the first Use call places a layer
// directly around the terminal application, each subsequent call wraps the
// chain built so far. Build constructs all nodes bottom-up, then resolves
// each layer's outward sender in a second phase; Finalize pins the terminal
// application's outward-send capability afterwards. The two phases keep the
// circular edge (application needs the stack, stack needs the application)
// visible in one place.
type Builder struct {
	terminal  Handler
	factories []LayerFactory
	appSender *SenderRef
}

// NewBuilder starts an empty stack. The terminal application is usually
// constructed against the builder's AppSender reference cell and attached
// with Terminal afterwards; that is the one sanctioned circular edge.
func NewBuilder() *Builder {
	return &Builder{
		appSender: NewSenderRef(),
	}
}

// Terminal attaches the terminal application the stack wraps.
func (b *Builder) Terminal(terminal Handler) *Builder {
	b.terminal = terminal
	return b
}

// AppSender returns the reference cell the terminal application should send
// through. It stays unresolved until Stack.Finalize runs; sends before that
// fail with a configuration error rather than bypassing the stack.
func (b *Builder) AppSender() *SenderRef {
	return b.appSender
}

// Use adds a layer outward of all previously added layers.
func (b *Builder) Use(factory LayerFactory) *Builder {
	b.factories = append(b.factories, factory)
	return b
}

// UseLayer adds a configured Layer outward of all previously added layers.
func (b *Builder) UseLayer(layer Layer) *Builder {
	return b.Use(layer.Wrap)
}

// Build constructs the chain against the given transport sender. The
// returned stack's Top handler is what the transport invokes for inbound
// events. The stack is not usable for application-originated sends until
// Finalize runs.
func (b *Builder) Build(transport Sender) (*Stack, error) {
	if b.terminal == nil {
		return nil, errutil.Error{Code: errutil.BadConfiguration, Msg: "stack requires a terminal application"}
	}
	if transport == nil {
		return nil, errutil.Error{Code: errutil.BadConfiguration, Msg: "stack requires a transport sender"}
	}

	// Phase one: construct nodes bottom-up. Each node receives an unresolved
	// reference cell for its outward sender because the layer outward of it
	// does not exist yet.
	refs := make([]*SenderRef, len(b.factories))
	layers := make([]Middleware, len(b.factories))
	next := b.terminal
	for i, factory := range b.factories {
		refs[i] = NewSenderRef()
		layers[i] = factory(next, refs[i])
		next = layers[i]
	}

	// Phase two: resolve outward senders. Layer i sends through layer i+1;
	// the outermost layer sends through the transport.
	for i := range layers {
		target := transport
		if i < len(layers)-1 {
			target = layers[i+1]
		}
		if err := refs[i].Set(target); err != nil {
			return nil, err
		}
	}

	return &Stack{
		top:       next,
		layers:    layers,
		transport: transport,
		appSender: b.appSender,
	}, nil
}

// Stack is an assembled middleware chain. Ownership is a simple forward
// chain, built once and immutable thereafter.
type Stack struct {
	top       Handler
	layers    []Middleware // innermost first
	transport Sender
	appSender *SenderRef
}

// Top returns the outermost handler, the one the transport invokes for
// inbound events.
func (s *Stack) Top() Handler {
	return s.top
}

// Layers returns the chain innermost first.
func (s *Stack) Layers() []Middleware {
	return s.layers
}

// Finalize pins the terminal application's outward-send capability to the
// innermost layer (or directly to the transport for an empty stack), so that
// application-originated packets traverse every layer. Finalizing twice is a
// configuration error.
func (s *Stack) Finalize() error {
	target := s.transport
	if len(s.layers) > 0 {
		target = s.layers[0]
	}
	return s.appSender.Set(target)
}
