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

package loader

import (
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"sigs.k8s.io/yaml"

	"github.com/Cordtus/ibc-apps/pkg/relay/callbacks"
	"github.com/Cordtus/ibc-apps/pkg/relay/forward"
	"github.com/Cordtus/ibc-apps/pkg/relay/hooks"
	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/plugins"
	"github.com/Cordtus/ibc-apps/pkg/relay/ratelimit"
)

// RegisterAllLayers registers the factory of every layer type shipped with
// this module. Hosts adding their own layer types call plugins.Register
// alongside this.
func RegisterAllLayers() {
	plugins.Register(ratelimit.LayerType, ratelimit.LayerFactory)
	plugins.Register(forward.LayerType, forward.LayerFactory)
	plugins.Register(callbacks.LayerType, callbacks.LayerFactory)
	plugins.Register(hooks.LayerType, hooks.LayerFactory)
}

// stackConfig is the raw YAML shape. Layers are listed outermost first, the
// order inbound events traverse them.
type stackConfig struct {
	Layers []layerConfig `json:"layers"`
}

type layerConfig struct {
	Type       string          `json:"type"`
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// Config is a loaded, validated stack configuration.
type Config struct {
	// Layers are instantiated layer definitions, outermost first.
	Layers []middleware.Layer
}

// LoadConfig parses a YAML stack configuration and instantiates the layers
// it names through the plugin factory registry. Collaborators a layer
// references by name (oracle, escrow, executor, hook providers) must already
// be present on the handle.
func LoadConfig(configBytes []byte, handle plugins.Handle, logger logr.Logger) (*Config, error) {
	rawConfig := &stackConfig{}
	if err := yaml.UnmarshalStrict(configBytes, rawConfig); err != nil {
		return nil, fmt.Errorf("the configuration is invalid - %w", err)
	}
	if err := validateLayerConfigs(rawConfig.Layers); err != nil {
		return nil, err
	}

	logger.Info("Loaded stack configuration", "layers", len(rawConfig.Layers))

	config := &Config{}
	for _, layerConfig := range rawConfig.Layers {
		factory := plugins.Registry[layerConfig.Type]
		instance, err := factory(layerConfig.Name, layerConfig.Parameters, handle)
		if err != nil {
			return nil, fmt.Errorf("failed to instantiate the '%s' layer - %w", layerConfig.Name, err)
		}
		handle.AddPlugin(layerConfig.Name, instance)

		layer, ok := instance.(middleware.Layer)
		if !ok {
			return nil, fmt.Errorf("the '%s' plugin type does not produce a stack layer", layerConfig.Type)
		}
		config.Layers = append(config.Layers, layer)
	}
	return config, nil
}

func validateLayerConfigs(layerConfigs []layerConfig) error {
	if len(layerConfigs) == 0 {
		return fmt.Errorf("the configuration names no layers")
	}
	names := map[string]struct{}{}
	for _, lc := range layerConfigs {
		if lc.Name == "" {
			return fmt.Errorf("every layer requires a name")
		}
		if _, ok := names[lc.Name]; ok {
			return fmt.Errorf("layer name '%s' is used more than once", lc.Name)
		}
		names[lc.Name] = struct{}{}
		if _, ok := plugins.Registry[lc.Type]; !ok {
			return fmt.Errorf("layer '%s' references unknown type '%s'", lc.Name, lc.Type)
		}
	}
	return nil
}

// Apply adds the configured layers to a stack builder, innermost first as
// the builder expects.
func (c *Config) Apply(builder *middleware.Builder) *middleware.Builder {
	for i := len(c.Layers) - 1; i >= 0; i-- {
		builder.UseLayer(c.Layers[i])
	}
	return builder
}
