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

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

// EnvPrefix is prepended to environment variables that set plugin options
const EnvPrefix = "NFTBRIDGE"

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	Type         PluginOptionType
}

type PluginEntry struct {
	NewFromOptionsFunc func(Deps) Plugin
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var pluginEntries []PluginEntry

// Register adds a plugin to the registry. It is meant to be called from init()
func Register(pluginEntry PluginEntry) {
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns the registry entries for a plugin type
func GetPlugins(pluginType PluginType) []PluginEntry {
	var ret []PluginEntry
	for _, entry := range pluginEntries {
		if entry.Type == pluginType {
			ret = append(ret, entry)
		}
	}
	return ret
}

// GetPlugin creates a new instance of the named plugin, or returns nil if
// no such plugin is registered
func GetPlugin(pluginType PluginType, pluginName string, deps Deps) Plugin {
	entry := findEntry(pluginType, pluginName)
	if entry == nil || entry.NewFromOptionsFunc == nil {
		return nil
	}
	return entry.NewFromOptionsFunc(deps)
}

func findEntry(pluginType PluginType, pluginName string) *PluginEntry {
	for i := range pluginEntries {
		if pluginEntries[i].Type == pluginType &&
			pluginEntries[i].Name == pluginName {
			return &pluginEntries[i]
		}
	}
	return nil
}

func optionKey(entry PluginEntry, opt PluginOption) string {
	return fmt.Sprintf(
		"%s-%s-%s",
		PluginTypeName(entry.Type),
		entry.Name,
		opt.Name,
	)
}

// PopulateCmdlineOptions adds a flag for every registered plugin option,
// named <type>-<plugin>-<option>
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	for _, entry := range pluginEntries {
		for _, opt := range entry.Options {
			flagName := optionKey(entry, opt)
			desc := fmt.Sprintf("%s (%s)", opt.Description, entry.Name)
			switch opt.Type {
			case PluginOptionTypeString:
				dest, ok := opt.Dest.(*string)
				if !ok {
					return fmt.Errorf("option %s: destination is not *string", flagName)
				}
				def, _ := opt.DefaultValue.(string)
				fs.StringVar(dest, flagName, def, desc)
			case PluginOptionTypeBool:
				dest, ok := opt.Dest.(*bool)
				if !ok {
					return fmt.Errorf("option %s: destination is not *bool", flagName)
				}
				def, _ := opt.DefaultValue.(bool)
				fs.BoolVar(dest, flagName, def, desc)
			case PluginOptionTypeInt:
				dest, ok := opt.Dest.(*int)
				if !ok {
					return fmt.Errorf("option %s: destination is not *int", flagName)
				}
				def, _ := opt.DefaultValue.(int)
				fs.IntVar(dest, flagName, def, desc)
			case PluginOptionTypeUint:
				dest, ok := opt.Dest.(*uint64)
				if !ok {
					return fmt.Errorf("option %s: destination is not *uint64", flagName)
				}
				def, _ := opt.DefaultValue.(uint64)
				fs.Uint64Var(dest, flagName, def, desc)
			default:
				return fmt.Errorf("option %s: unknown option type %d", flagName, opt.Type)
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options from environment variables, named
// NFTBRIDGE_<TYPE>_<PLUGIN>_<OPTION>
func ProcessEnvVars() error {
	for _, entry := range pluginEntries {
		for _, opt := range entry.Options {
			envName := EnvPrefix + "_" + strings.ToUpper(
				strings.ReplaceAll(optionKey(entry, opt), "-", "_"),
			)
			val, ok := os.LookupEnv(envName)
			if !ok {
				continue
			}
			if err := opt.assignString(val); err != nil {
				return fmt.Errorf("environment variable %s: %w", envName, err)
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from a config file section, keyed
// by plugin name and then option name
func ProcessConfig(
	pluginType PluginType,
	pluginConfig map[string]map[string]any,
) error {
	for pluginName, opts := range pluginConfig {
		entry := findEntry(pluginType, pluginName)
		if entry == nil {
			return fmt.Errorf(
				"unknown %s plugin '%s' in config",
				PluginTypeName(pluginType),
				pluginName,
			)
		}
		for optName, optVal := range opts {
			if s, ok := optVal.(string); ok {
				if err := entry.assignString(optName, s); err != nil {
					return err
				}
				continue
			}
			if err := SetPluginOption(pluginType, pluginName, optName, optVal); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *PluginEntry) assignString(optName string, val string) error {
	for _, opt := range e.Options {
		if opt.Name == optName {
			return opt.assignString(val)
		}
	}
	return nil
}

func (o PluginOption) assignString(val string) error {
	switch o.Type {
	case PluginOptionTypeString:
		return o.assign(val)
	case PluginOptionTypeBool:
		v, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("option %s: %w", o.Name, err)
		}
		return o.assign(v)
	case PluginOptionTypeInt:
		v, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("option %s: %w", o.Name, err)
		}
		return o.assign(v)
	case PluginOptionTypeUint:
		v, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("option %s: %w", o.Name, err)
		}
		return o.assign(v)
	default:
		return o.assign(val)
	}
}
