// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "nftbridge.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	BlobPlugin      string `yaml:"blobPlugin"      envconfig:"NFTBRIDGE_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin  string `yaml:"metadataPlugin"  envconfig:"NFTBRIDGE_DATABASE_METADATA_PLUGIN"`
	DatabasePath    string `yaml:"databasePath"                                                  split_words:"true"`
	BindAddr        string `yaml:"bindAddr"                                                      split_words:"true"`
	ProgramId       string `yaml:"programId"                                                     split_words:"true"`
	GatewayUrl      string `yaml:"gatewayUrl"                                                    split_words:"true"`
	SigningKeyFile  string `yaml:"signingKeyFile"                                                split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout"                                               split_words:"true"`
	MaxClockSkew    string `yaml:"maxClockSkew"                                                  split_words:"true"`
	GatewayPort     uint   `yaml:"gatewayPort"     envconfig:"port"`
	MetricsPort     uint   `yaml:"metricsPort"                                                   split_words:"true"`
	TracingEnabled  bool   `yaml:"tracingEnabled"                                                split_words:"true"`
	TracingStdout   bool   `yaml:"tracingStdout"                                                 split_words:"true"`
}

// ParsedProgramId returns the configured program identity, or the zero
// address when none is set
func (c *Config) ParsedProgramId() (address.Address, error) {
	if c.ProgramId == "" {
		return address.Zero, nil
	}
	ret, err := address.Parse(c.ProgramId)
	if err != nil {
		return address.Zero, fmt.Errorf("invalid programId: %w", err)
	}
	return ret, nil
}

func (c *Config) validate() error {
	if _, err := c.ParsedProgramId(); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdownTimeout: %w", err)
	}
	if _, err := time.ParseDuration(c.MaxClockSkew); err != nil {
		return fmt.Errorf("invalid maxClockSkew: %w", err)
	}
	if c.GatewayPort > 65535 || c.MetricsPort > 65535 {
		return errors.New("port numbers must be below 65536")
	}
	return nil
}

var globalConfig = newDefaultConfig()

func newDefaultConfig() *Config {
	return &Config{
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		DatabasePath:    ".nftbridge",
		BindAddr:        "0.0.0.0",
		GatewayUrl:      "http://127.0.0.1:3100",
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxClockSkew:    "5m",
		GatewayPort:     3100,
		MetricsPort:     12799,
	}
}

// pluginSection converts a database.blob or database.metadata section into
// per-plugin option maps. A "plugin" key selects the plugin itself.
func pluginSection(
	section map[string]any,
	sectionName string,
	selected *string,
) map[string]map[string]any {
	if pluginVal, exists := section["plugin"]; exists {
		if pluginName, ok := pluginVal.(string); ok {
			*selected = pluginName
			delete(section, "plugin")
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if val, ok := v.(map[string]any); ok {
			ret[k] = val
		} else if val, ok := v.(map[any]any); ok {
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		} else {
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				sectionName,
				k,
				v,
			)
		}
	}
	return ret
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.nftbridge/nftbridge.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".nftbridge", "nftbridge.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/nftbridge/nftbridge.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/nftbridge/nftbridge.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		if !tempCfg.Config.IsZero() {
			// Overlay only the keys present in the section onto the defaults
			if err := tempCfg.Config.Decode(globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			// Otherwise the whole file is the main config
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}

		blobConfig := tempCfg.Blob
		metadataConfig := tempCfg.Metadata
		if tempCfg.Database != nil {
			if tempCfg.Database.Blob != nil {
				section := pluginSection(tempCfg.Database.Blob, "blob", &globalConfig.BlobPlugin)
				if blobConfig == nil {
					blobConfig = section
				} else {
					maps.Copy(blobConfig, section)
				}
			}
			if tempCfg.Database.Metadata != nil {
				section := pluginSection(tempCfg.Database.Metadata, "metadata", &globalConfig.MetadataPlugin)
				if metadataConfig == nil {
					metadataConfig = section
				} else {
					maps.Copy(metadataConfig, section)
				}
			}
		}
		if len(blobConfig) > 0 {
			if err := plugin.ProcessConfig(plugin.PluginTypeBlob, blobConfig); err != nil {
				return nil, fmt.Errorf("error processing plugin config: %w", err)
			}
		}
		if len(metadataConfig) > 0 {
			if err := plugin.ProcessConfig(plugin.PluginTypeMetadata, metadataConfig); err != nil {
				return nil, fmt.Errorf("error processing plugin config: %w", err)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("nftbridge", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if err := globalConfig.validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
