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

package main

import (
	"os"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsoonworld/rJMX-Exporter/internal/config"
)

func TestLoadConfig_CLIFlagsOverrideFileAndDefaults(t *testing.T) {
	opts := defaultExporterOptions()
	opts.JolokiaURL = "http://cli-host:8778/jolokia"
	opts.Port = 9999

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "http://cli-host:8778/jolokia", cfg.Jolokia.URL)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadConfig_DoesNotValidate(t *testing.T) {
	opts := defaultExporterOptions()
	opts.MetricsPath = "no-leading-slash"
	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestRunValidate_ValidConfig_ReturnsZero(t *testing.T) {
	assert.Equal(t, 0, runValidate(config.Defaults(), "text"))
}

func TestRunValidate_InvalidConfig_ReturnsOne(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.Port = 0
	assert.Equal(t, 1, runValidate(cfg, "text"))
}

func TestRunDryRun_AllRulesCompile_ReturnsZero(t *testing.T) {
	ruleSet, err := config.BuildRuleSet([]config.RuleConfig{{Pattern: "x", Name: "m"}})
	require.NoError(t, err)
	assert.Equal(t, 0, runDryRun(ruleSet, "text"))
}

func TestRunDryRun_BadRule_ReturnsOne(t *testing.T) {
	ruleSet, err := config.BuildRuleSet([]config.RuleConfig{{Pattern: "(?>atomic)", Name: "m"}})
	require.NoError(t, err)
	assert.Equal(t, 1, runDryRun(ruleSet, "text"))
}

func TestRevision_DefaultsToUnknown(t *testing.T) {
	os.Unsetenv("RJMX_BUILD_REVISION")
	assert.Equal(t, "unknown", revision())
}

func TestRevision_ReadsEnvVar(t *testing.T) {
	t.Setenv("RJMX_BUILD_REVISION", "abc123")
	assert.Equal(t, "abc123", revision())
}

func TestFilterLogLevel_AcceptsAllKnownLevels(t *testing.T) {
	base := log.NewNopLogger()
	for _, lvl := range []string{"debug", "info", "warn", "error", "unrecognized"} {
		assert.NotNil(t, filterLogLevel(base, lvl))
	}
}
