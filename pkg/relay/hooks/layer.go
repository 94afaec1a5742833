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

package hooks

import (
	"encoding/json"
	"fmt"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/plugins"
	errutil "github.com/Cordtus/ibc-apps/pkg/relay/util/error"
)

// LayerType is the plugin type under which the hooks layer registers.
const LayerType = "hooks"

// SetProviderPlugin supplies hook sets through the plugin handle. Hook sets
// are code, not configuration, so a configuration references the provider by
// name.
type SetProviderPlugin interface {
	plugins.Plugin
	HookSets() []HookSet
}

// Layer is the configured hooks layer definition.
type Layer struct {
	tn       plugins.TypedName
	sets     []HookSet
	resolved resolved
}

// NewLayer resolves the capability sets once. Two sets overriding the same
// lifecycle point is a configuration error.
func NewLayer(name string, sets []HookSet) (*Layer, error) {
	r := resolved{}
	for _, set := range sets {
		if set.Recv.Override != nil {
			if r.recvOverride != nil {
				return nil, overrideConflict("recv", r.overrideSet, set.Name)
			}
			r.recvOverride = set.Recv.Override
			r.overrideSet = set.Name
		}
		if set.Ack.Override != nil {
			if r.ackOverride != nil {
				return nil, overrideConflict("ack", r.overrideSet, set.Name)
			}
			r.ackOverride = set.Ack.Override
			r.overrideSet = set.Name
		}
		if set.Timeout.Override != nil {
			if r.timeoutOverride != nil {
				return nil, overrideConflict("timeout", r.overrideSet, set.Name)
			}
			r.timeoutOverride = set.Timeout.Override
			r.overrideSet = set.Name
		}
		if set.Send.Override != nil {
			if r.sendOverride != nil {
				return nil, overrideConflict("send", r.overrideSet, set.Name)
			}
			r.sendOverride = set.Send.Override
			r.overrideSet = set.Name
		}
	}
	return &Layer{
		tn:       plugins.TypedName{Type: LayerType, Name: name},
		sets:     sets,
		resolved: r,
	}, nil
}

func overrideConflict(point, first, second string) error {
	return errutil.Error{
		Code: errutil.BadConfiguration,
		Msg:  fmt.Sprintf("hook sets %q and %q both override the %s point", first, second, point),
	}
}

// TypedName returns the type and name tuple of this plugin instance.
func (l *Layer) TypedName() plugins.TypedName { return l.tn }

// Wrap implements middleware.Layer.
func (l *Layer) Wrap(next middleware.Handler, sender middleware.Sender) middleware.Middleware {
	return NewMiddleware(l.sets, l.resolved, next, sender)
}

type layerParameters struct {
	// Provider names the SetProviderPlugin instance registered with the
	// handle.
	Provider string `json:"provider"`
}

// LayerFactory instantiates a hooks layer from configuration parameters.
func LayerFactory(name string, rawParameters json.RawMessage, handle plugins.Handle) (plugins.Plugin, error) {
	parameters := layerParameters{}
	if len(rawParameters) > 0 {
		if err := json.Unmarshal(rawParameters, &parameters); err != nil {
			return nil, fmt.Errorf("failed to parse the parameters of the '%s' layer - %w", name, err)
		}
	}
	if parameters.Provider == "" {
		return nil, fmt.Errorf("the '%s' layer requires a provider reference", name)
	}
	provider, err := plugins.PluginByType[SetProviderPlugin](handle, parameters.Provider)
	if err != nil {
		return nil, err
	}
	return NewLayer(name, provider.HookSets())
}
