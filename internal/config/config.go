// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads, merges, and validates the exporter's YAML
// configuration file (spec.md §6), applying the override precedence
// CLI > environment variable > file > default.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleConfig is one entry of the "rules" list in the YAML file.
type RuleConfig struct {
	Pattern     string            `yaml:"pattern"`
	Name        string            `yaml:"name"`
	Type        string            `yaml:"type"`
	Help        string            `yaml:"help"`
	Labels      map[string]string `yaml:"labels"`
	Value       string            `yaml:"value"`
	ValueFactor *float64          `yaml:"valueFactor"`
}

// TLSConfig is "server.tls".
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ServerConfig is "server".
type ServerConfig struct {
	Port        int       `yaml:"port"`
	Path        string    `yaml:"path"`
	BindAddress string    `yaml:"bind_address"`
	TLS         TLSConfig `yaml:"tls"`
}

// JolokiaConfig is "jolokia".
type JolokiaConfig struct {
	URL       string `yaml:"url"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TimeoutMS int     `yaml:"timeout_ms"`
}

// File is the top-level YAML document shape from spec.md §6.
type File struct {
	Jolokia                   JolokiaConfig `yaml:"jolokia"`
	Server                    ServerConfig  `yaml:"server"`
	Rules                     []RuleConfig  `yaml:"rules"`
	LowercaseOutputName       bool          `yaml:"lowercaseOutputName"`
	LowercaseOutputLabelNames bool          `yaml:"lowercaseOutputLabelNames"`
	WhitelistObjectNames      []string      `yaml:"whitelistObjectNames"`
	BlacklistObjectNames      []string      `yaml:"blacklistObjectNames"`
}

// Defaults returns a File pre-populated with the exporter's defaults, the
// base layer of the CLI > env > file > default precedence chain.
func Defaults() File {
	return File{
		Jolokia: JolokiaConfig{
			URL:       "http://localhost:8778/jolokia",
			TimeoutMS: 5000,
		},
		Server: ServerConfig{
			Port:        9400,
			Path:        "/metrics",
			BindAddress: "0.0.0.0",
		},
	}
}

// LoadFile reads and YAML-decodes the configuration file at path on top of
// Defaults(). It does not validate; call (*File).ApplyEnv and Validate
// afterward to complete the CLI > env > file > default chain.
func LoadFile(path string) (File, error) {
	f := Defaults()
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: reading %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	return f, nil
}

// envPrefix namespaces the environment-variable override layer.
const envPrefix = "RJMX_"

// ApplyEnv overlays recognized RJMX_*-prefixed environment variables onto f,
// the second layer of the precedence chain (CLI overrides applied
// afterward by the caller win over these).
func (f *File) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(envPrefix + "JOLOKIA_URL"); ok {
		f.Jolokia.URL = v
	}
	if v, ok := lookup(envPrefix + "JOLOKIA_USERNAME"); ok {
		f.Jolokia.Username = v
	}
	if v, ok := lookup(envPrefix + "JOLOKIA_PASSWORD"); ok {
		f.Jolokia.Password = v
	}
	if v, ok := lookup(envPrefix + "LISTEN_ADDRESS"); ok {
		f.Server.BindAddress = v
	}
	if v, ok := lookup(envPrefix + "METRICS_PATH"); ok {
		f.Server.Path = v
	}
	if v, ok := lookup(envPrefix + "PORT"); ok {
		if p, err := strconv.Atoi(v); err == nil {
			f.Server.Port = p
		}
	}
}

// Validate enforces every rule from spec.md §6, accumulating every
// violation rather than stopping at the first, matching the --validate
// contract's "non-zero and human-/machine-readable error list".
func (f File) Validate() error {
	var errs []error

	if f.Server.Port == 0 {
		errs = append(errs, errors.New("server.port must not be 0"))
	}
	if !strings.HasPrefix(f.Server.Path, "/") {
		errs = append(errs, fmt.Errorf("server.path %q must begin with '/'", f.Server.Path))
	}
	if f.Server.Path == "/" || f.Server.Path == "/health" {
		errs = append(errs, fmt.Errorf("server.path must not be exactly '/' or '/health', got %q", f.Server.Path))
	}
	if f.Server.TLS.Enabled {
		if f.Server.TLS.CertFile == "" || f.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.enabled requires both cert_file and key_file"))
		} else {
			if _, err := os.Stat(f.Server.TLS.CertFile); err != nil {
				errs = append(errs, fmt.Errorf("server.tls.cert_file: %w", err))
			}
			if _, err := os.Stat(f.Server.TLS.KeyFile); err != nil {
				errs = append(errs, fmt.Errorf("server.tls.key_file: %w", err))
			}
		}
	}
	for i, r := range f.Rules {
		if strings.TrimSpace(r.Pattern) == "" {
			errs = append(errs, fmt.Errorf("rules[%d]: pattern must not be empty", i))
		}
	}

	return errors.Join(errs...)
}
