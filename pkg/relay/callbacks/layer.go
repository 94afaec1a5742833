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

package callbacks

import (
	"encoding/json"
	"fmt"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/plugins"
)

// LayerType is the plugin type under which the callback dispatcher
// registers.
const LayerType = "callbacks"

// DefaultMaxGas caps a callback when the configuration names no ceiling.
const DefaultMaxGas uint64 = 1_000_000

// ExecutorPlugin is a ContractExecutor registered with the plugin handle so
// a configuration can reference it by name.
type ExecutorPlugin interface {
	plugins.Plugin
	ContractExecutor
}

// Layer is the configured callback layer definition.
type Layer struct {
	tn         plugins.TypedName
	dispatcher *Dispatcher
}

// NewLayer creates a callback layer around a contract executor.
func NewLayer(name string, executor ContractExecutor, maxGas uint64) *Layer {
	if maxGas == 0 {
		maxGas = DefaultMaxGas
	}
	return &Layer{
		tn:         plugins.TypedName{Type: LayerType, Name: name},
		dispatcher: NewDispatcher(executor, maxGas),
	}
}

// TypedName returns the type and name tuple of this plugin instance.
func (l *Layer) TypedName() plugins.TypedName { return l.tn }

// Wrap implements middleware.Layer.
func (l *Layer) Wrap(next middleware.Handler, sender middleware.Sender) middleware.Middleware {
	return NewMiddleware(l.dispatcher, next, sender)
}

type layerParameters struct {
	// Executor names the ExecutorPlugin instance registered with the handle.
	Executor string `json:"executor"`
	// MaxGas is the global gas ceiling per callback.
	MaxGas uint64 `json:"maxGas,omitempty"`
}

// LayerFactory instantiates a callback layer from configuration parameters.
func LayerFactory(name string, rawParameters json.RawMessage, handle plugins.Handle) (plugins.Plugin, error) {
	parameters := layerParameters{}
	if len(rawParameters) > 0 {
		if err := json.Unmarshal(rawParameters, &parameters); err != nil {
			return nil, fmt.Errorf("failed to parse the parameters of the '%s' layer - %w", name, err)
		}
	}
	if parameters.Executor == "" {
		return nil, fmt.Errorf("the '%s' layer requires an executor reference", name)
	}
	executor, err := plugins.PluginByType[ExecutorPlugin](handle, parameters.Executor)
	if err != nil {
		return nil, err
	}
	return NewLayer(name, executor, parameters.MaxGas), nil
}
