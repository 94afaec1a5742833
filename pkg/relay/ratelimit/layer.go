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

package ratelimit

import (
	"encoding/json"
	"fmt"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/plugins"
)

// LayerType is the plugin type under which the rate limiter registers.
const LayerType = "ratelimit"

// OraclePlugin is a ChannelValueOracle registered with the plugin handle so
// a configuration can reference it by name.
type OraclePlugin interface {
	plugins.Plugin
	ChannelValueOracle
}

// Layer is the configured rate-limit layer definition. One Layer owns one
// Limiter; every stack node produced by Wrap shares it.
type Layer struct {
	tn      plugins.TypedName
	limiter *Limiter
}

// NewLayer creates a rate-limit layer around an existing limiter.
func NewLayer(name string, limiter *Limiter) *Layer {
	return &Layer{
		tn:      plugins.TypedName{Type: LayerType, Name: name},
		limiter: limiter,
	}
}

// TypedName returns the type and name tuple of this plugin instance.
func (l *Layer) TypedName() plugins.TypedName { return l.tn }

// Limiter exposes the engine for the governance surface.
func (l *Layer) Limiter() *Limiter { return l.limiter }

// Wrap implements middleware.Layer.
func (l *Layer) Wrap(next middleware.Handler, sender middleware.Sender) middleware.Middleware {
	return NewMiddleware(l.limiter, next, sender)
}

type layerParameters struct {
	// Oracle names the OraclePlugin instance registered with the handle.
	Oracle string `json:"oracle"`
	// Quotas are installed at load time; governance mutates them afterwards.
	Quotas []Quota `json:"quotas,omitempty"`
}

// LayerFactory instantiates a rate-limit layer from configuration parameters.
func LayerFactory(name string, rawParameters json.RawMessage, handle plugins.Handle) (plugins.Plugin, error) {
	parameters := layerParameters{}
	if len(rawParameters) > 0 {
		if err := json.Unmarshal(rawParameters, &parameters); err != nil {
			return nil, fmt.Errorf("failed to parse the parameters of the '%s' layer - %w", name, err)
		}
	}
	if parameters.Oracle == "" {
		return nil, fmt.Errorf("the '%s' layer requires an oracle reference", name)
	}
	oracle, err := plugins.PluginByType[OraclePlugin](handle, parameters.Oracle)
	if err != nil {
		return nil, err
	}

	limiter := NewLimiter(oracle)
	for _, quota := range parameters.Quotas {
		if err := limiter.AddQuota(quota); err != nil {
			return nil, fmt.Errorf("failed to install quota for the '%s' layer - %w", name, err)
		}
	}
	return NewLayer(name, limiter), nil
}
