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
	"encoding/json"
	"fmt"
	"time"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/plugins"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
)

// LayerType is the plugin type under which the forwarder registers.
const LayerType = "forward"

// EscrowPlugin is an Escrow registered with the plugin handle so a
// configuration can reference it by name.
type EscrowPlugin interface {
	plugins.Plugin
	Escrow
}

// Layer is the configured forwarding layer definition.
type Layer struct {
	tn             plugins.TypedName
	escrow         Escrow
	defaultTimeout time.Duration
	defaultRetries uint8
	now            func() time.Time
}

// NewLayer creates a forwarding layer around an escrow collaborator.
func NewLayer(name string, escrow Escrow, defaultTimeout time.Duration, defaultRetries uint8) *Layer {
	return &Layer{
		tn:             plugins.TypedName{Type: LayerType, Name: name},
		escrow:         escrow,
		defaultTimeout: defaultTimeout,
		defaultRetries: defaultRetries,
		now:            time.Now,
	}
}

// WithClock overrides the time source used for hop timeouts, for tests.
func (l *Layer) WithClock(now func() time.Time) *Layer {
	l.now = now
	return l
}

// TypedName returns the type and name tuple of this plugin instance.
func (l *Layer) TypedName() plugins.TypedName { return l.tn }

// Wrap implements middleware.Layer.
func (l *Layer) Wrap(next middleware.Handler, sender middleware.Sender) middleware.Middleware {
	return NewMiddleware(l.escrow, l.defaultTimeout, l.defaultRetries, l.now, next, sender)
}

type layerParameters struct {
	// Escrow names the EscrowPlugin instance registered with the handle.
	Escrow string `json:"escrow"`
	// Timeout is the default hop timeout when a memo names none.
	Timeout types.Duration `json:"timeout,omitempty"`
	// Retries is the default retry budget when a memo names none.
	Retries uint8 `json:"retries,omitempty"`
}

// LayerFactory instantiates a forwarding layer from configuration parameters.
func LayerFactory(name string, rawParameters json.RawMessage, handle plugins.Handle) (plugins.Plugin, error) {
	parameters := layerParameters{}
	if len(rawParameters) > 0 {
		if err := json.Unmarshal(rawParameters, &parameters); err != nil {
			return nil, fmt.Errorf("failed to parse the parameters of the '%s' layer - %w", name, err)
		}
	}
	if parameters.Escrow == "" {
		return nil, fmt.Errorf("the '%s' layer requires an escrow reference", name)
	}
	escrow, err := plugins.PluginByType[EscrowPlugin](handle, parameters.Escrow)
	if err != nil {
		return nil, err
	}
	return NewLayer(name, escrow, parameters.Timeout.Duration(), parameters.Retries), nil
}
