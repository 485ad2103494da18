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

// Command rjmx-exporter scrapes a Jolokia HTTP agent and re-exposes JVM
// MBean attributes as Prometheus metrics, matching the rule-driven
// flatten/match/substitute pipeline of spec.md.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"gopkg.in/yaml.v3"

	"github.com/jsoonworld/rJMX-Exporter/internal/config"
	"github.com/jsoonworld/rJMX-Exporter/internal/rules"
	"github.com/jsoonworld/rJMX-Exporter/internal/server"
	"github.com/jsoonworld/rJMX-Exporter/internal/transform"
)

// version is overridden at build time via -ldflags, matching the teacher's
// cmd/*/main.go convention of a package-level version var.
var version = "dev"

// exporterOptions holds every CLI flag; setupFlags follows the teacher's
// evaluatorOptions pattern in cmd/rule-evaluator/main.go. Validation is done
// on the merged configuration by config.File.Validate.
type exporterOptions struct {
	ConfigFile   string
	JolokiaURL   string
	ListenAddr   string
	MetricsPath  string
	Port         int
	LogLevel     string
	DryRun       bool
	ValidateOnly bool
	OutputFormat string
}

func (o *exporterOptions) setupFlags(a *kingpin.Application) {
	a.Flag("config.file", "Path to the YAML configuration file.").
		Default(o.ConfigFile).StringVar(&o.ConfigFile)

	a.Flag("jolokia.url", "Jolokia agent URL (overrides the config file's jolokia.url).").
		Default(o.JolokiaURL).StringVar(&o.JolokiaURL)

	a.Flag("web.listen-address", "Address to bind the HTTP server to.").
		Default(o.ListenAddr).StringVar(&o.ListenAddr)

	a.Flag("web.telemetry-path", "Path under which to expose metrics.").
		Default(o.MetricsPath).StringVar(&o.MetricsPath)

	a.Flag("web.listen-port", "Port to bind the HTTP server to.").
		Default(fmt.Sprintf("%d", o.Port)).IntVar(&o.Port)

	a.Flag("log.level", "Log filtering level: debug, info, warn, error.").
		Default(o.LogLevel).EnumVar(&o.LogLevel, "debug", "info", "warn", "error")

	a.Flag("dry-run", "Compile every configured rule and report per-rule status, then exit.").
		BoolVar(&o.DryRun)

	a.Flag("validate", "Validate the configuration file and exit without starting the server.").
		BoolVar(&o.ValidateOnly)

	a.Flag("output-format", "Output format for --dry-run/--validate: text, json, or yaml.").
		Default("text").EnumVar(&o.OutputFormat, "text", "json", "yaml")
}

// defaultExporterOptions leaves the server flags empty so that, unless a
// flag is given, the environment, the file, or config.Defaults supply them.
func defaultExporterOptions() exporterOptions {
	return exporterOptions{
		ConfigFile:  "",
		JolokiaURL:  "",
		ListenAddr:  "",
		MetricsPath: "",
		Port:        0,
		LogLevel:    "info",
	}
}

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)

	a := kingpin.New(os.Args[0], "A rule-driven Jolokia-to-Prometheus exporter.")
	a.Version(version)
	a.HelpFlag.Short('h')

	opts := defaultExporterOptions()
	opts.setupFlags(a)

	if _, err := a.Parse(os.Args[1:]); err != nil {
		level.Error(logger).Log("msg", "error parsing commandline arguments", "err", err)
		a.Usage(os.Args[1:])
		os.Exit(2)
	}

	logger = filterLogLevel(logger, opts.LogLevel)

	cfg, err := loadConfig(opts)
	if err != nil {
		level.Error(logger).Log("msg", "failed to load configuration", "err", err)
		os.Exit(1)
	}

	if opts.ValidateOnly {
		os.Exit(runValidate(cfg, opts.OutputFormat))
	}

	if err := cfg.Validate(); err != nil {
		level.Error(logger).Log("msg", "invalid configuration", "err", err)
		os.Exit(1)
	}

	ruleSet, err := config.BuildRuleSet(cfg.Rules)
	if err != nil {
		level.Error(logger).Log("msg", "invalid rule configuration", "err", err)
		os.Exit(1)
	}

	if opts.DryRun {
		os.Exit(runDryRun(ruleSet, opts.OutputFormat))
	}

	mbeans := config.ResolveObjectNames(cfg.WhitelistObjectNames, cfg.BlacklistObjectNames)

	srv := server.New(server.Options{
		JolokiaURL:      cfg.Jolokia.URL,
		JolokiaUsername: cfg.Jolokia.Username,
		JolokiaPassword: cfg.Jolokia.Password,
		JolokiaTimeout:  time.Duration(cfg.Jolokia.TimeoutMS) * time.Millisecond,
		MBeans:          mbeans,
		RuleSet:         ruleSet,
		TransformOpts: transform.Options{
			LowercaseOutputName:       cfg.LowercaseOutputName,
			LowercaseOutputLabelNames: cfg.LowercaseOutputLabelNames,
		},
		MetricsPath: cfg.Server.Path,
		BindAddress: cfg.Server.BindAddress,
		Port:        cfg.Server.Port,
		TLSCertFile: cfg.Server.TLS.CertFile,
		TLSKeyFile:  cfg.Server.TLS.KeyFile,
		Info: server.Info{
			Version:   version,
			Revision:  revision(),
			GoVersion: runtime.Version(),
		},
		Logger: logger,
	})

	var g run.Group
	{
		term := make(chan os.Signal, 1)
		cancel := make(chan struct{})
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-term:
				level.Info(logger).Log("msg", "received SIGTERM, exiting gracefully...")
			case <-cancel:
			}
			return nil
		}, func(err error) {
			close(cancel)
		})
	}
	{
		g.Add(func() error {
			return srv.ListenAndServe()
		}, func(err error) {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			srv.Shutdown(ctx)
		})
	}

	if err := g.Run(); err != nil {
		level.Error(logger).Log("msg", "exporter exited with error", "err", err)
		os.Exit(1)
	}
}

func filterLogLevel(logger log.Logger, lvl string) log.Logger {
	switch lvl {
	case "debug":
		return level.NewFilter(logger, level.AllowDebug())
	case "warn":
		return level.NewFilter(logger, level.AllowWarn())
	case "error":
		return level.NewFilter(logger, level.AllowError())
	default:
		return level.NewFilter(logger, level.AllowInfo())
	}
}

// loadConfig implements the CLI > env > file > default precedence chain of
// spec.md §6: file layered on defaults, environment variables layered on
// top, then the explicit --jolokia.url/--web.* flags win last.
func loadConfig(opts exporterOptions) (config.File, error) {
	cfg, err := config.LoadFile(opts.ConfigFile)
	if err != nil {
		return config.File{}, err
	}
	cfg.ApplyEnv(os.LookupEnv)

	if opts.JolokiaURL != "" {
		cfg.Jolokia.URL = opts.JolokiaURL
	}
	if opts.ListenAddr != "" {
		cfg.Server.BindAddress = opts.ListenAddr
	}
	if opts.MetricsPath != "" {
		cfg.Server.Path = opts.MetricsPath
	}
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}

	return cfg, nil
}

// runDryRun implements spec.md §6's --dry-run mode: compile every rule and
// report status without starting the server. Exit code 0 if every rule
// compiled, 1 otherwise.
func runDryRun(ruleSet *rules.Set, format string) int {
	diags := rules.Diagnose(ruleSet)
	printDiagnostics(diags, format)

	for _, d := range diags {
		if !d.OK {
			return 1
		}
	}
	return 0
}

func printDiagnostics(diags []rules.Diagnostic, format string) {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(diags)
		return
	case "yaml":
		out, err := yaml.Marshal(diags)
		if err != nil {
			fmt.Fprintf(os.Stderr, "encoding diagnostics as yaml: %v\n", err)
			return
		}
		os.Stdout.Write(out)
		return
	}
	for _, d := range diags {
		status := "OK"
		if !d.OK {
			status = "FAIL: " + d.Error
		}
		fmt.Printf("%-40s %-20s %s\n", d.Pattern, d.Name, status)
		for _, w := range d.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}
}

// runValidate implements spec.md §6's --validate mode: load and validate
// the configuration file, report every accumulated error, and exit non-zero
// on any failure.
func runValidate(cfg config.File, format string) int {
	err := cfg.Validate()
	switch format {
	case "json":
		result := map[string]interface{}{"valid": err == nil}
		if err != nil {
			result["error"] = err.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(result)
	case "yaml":
		result := map[string]interface{}{"valid": err == nil}
		if err != nil {
			result["error"] = err.Error()
		}
		out, merr := yaml.Marshal(result)
		if merr != nil {
			fmt.Fprintf(os.Stderr, "encoding validation result as yaml: %v\n", merr)
		} else {
			os.Stdout.Write(out)
		}
	default:
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration invalid:\n%v\n", err)
		} else {
			fmt.Println("configuration valid")
		}
	}
	if err != nil {
		return 1
	}
	return 0
}

func revision() string {
	if v, ok := os.LookupEnv("RJMX_BUILD_REVISION"); ok {
		return v
	}
	return "unknown"
}

const shutdownTimeout = 30 * time.Second
