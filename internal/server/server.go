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

// Package server wires the Jolokia client, the rule set, and the
// transformation engine into an HTTP scrape handler (spec.md §4.7/§6).
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsoonworld/rJMX-Exporter/internal/jolokia"
	"github.com/jsoonworld/rJMX-Exporter/internal/rules"
	"github.com/jsoonworld/rJMX-Exporter/internal/selfmetrics"
	"github.com/jsoonworld/rJMX-Exporter/internal/transform"
)

// Info carries the build/version facts rendered into the rjmx_exporter_info
// sample (spec.md §6).
type Info struct {
	Version   string
	Revision  string
	GoVersion string
}

// Options configures a Server at construction time; everything here is
// immutable for the process lifetime (there is no in-place config reload;
// a changed configuration takes effect on process restart — see DESIGN.md).
type Options struct {
	JolokiaURL      string
	JolokiaUsername string
	JolokiaPassword string
	JolokiaTimeout  time.Duration
	MBeans          []string
	RuleSet         *rules.Set
	TransformOpts   transform.Options
	MetricsPath     string
	BindAddress     string
	Port            int
	TLSCertFile     string
	TLSKeyFile      string
	Info            Info
	Logger          log.Logger
}

// Server holds everything one exporter process needs to answer scrapes: a
// shared Jolokia client, the compiled rule set, and the self-observability
// registry (spec.md §4.6). One Server serves one Jolokia target for the
// lifetime of the process.
type Server struct {
	jolokiaURL    string
	mbeans        []string
	ruleSet       *rules.Set
	transformOpts transform.Options
	metricsPath   string
	info          Info
	logger        log.Logger

	client   *jolokia.Client
	registry *selfmetrics.Registry

	http        *http.Server
	tlsCertFile string
	tlsKeyFile  string
}

// New builds a Server ready to ListenAndServe. It does not start listening.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	s := &Server{
		jolokiaURL:    opts.JolokiaURL,
		mbeans:        opts.MBeans,
		ruleSet:       opts.RuleSet,
		transformOpts: opts.TransformOpts,
		metricsPath:   normalizeMetricsPath(opts.MetricsPath),
		info:          opts.Info,
		logger:        logger,
		registry:      selfmetrics.NewRegistry(),
		client: jolokia.NewClient(jolokia.ClientOptions{
			URL:      opts.JolokiaURL,
			Username: opts.JolokiaUsername,
			Password: opts.JolokiaPassword,
			Timeout:  opts.JolokiaTimeout,
		}),
	}

	if opts.RuleSet != nil {
		opts.RuleSet.OnWarning = func(pattern, warning string) {
			level.Warn(logger).Log("msg", "rule pattern translation warning", "pattern", pattern, "warning", warning)
		}
	}

	procReg := processRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc(s.metricsPath, s.handleMetrics)
	mux.Handle("/internal/process_metrics", promhttp.HandlerFor(procReg, promhttp.HandlerOpts{Registry: procReg}))

	addr := net.JoinHostPort(opts.BindAddress, fmt.Sprintf("%d", opts.Port))
	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.tlsCertFile, s.tlsKeyFile = opts.TLSCertFile, opts.TLSKeyFile

	return s
}

func (s *Server) Addr() string { return s.http.Addr }

// ListenAndServe runs the HTTP server to completion (blocking), serving
// plain HTTP unless both TLS files were configured, in which case it
// serves HTTPS — spec.md §6's "server.tls.enabled" contract.
func (s *Server) ListenAndServe() error {
	level.Info(s.logger).Log("msg", "starting HTTP server", "addr", s.http.Addr, "path", s.metricsPath)
	if s.tlsCertFile != "" && s.tlsKeyFile != "" {
		return s.http.ListenAndServeTLS(s.tlsCertFile, s.tlsKeyFile)
	}
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

var (
	procRegistryOnce sync.Once
	procRegistryVal  *prometheus.Registry
)

// processRegistry builds the process/Go-runtime diagnostics registry served
// at /internal/process_metrics, separate from the rule-driven exposition at
// metricsPath — mirroring the teacher's own split between its own-process
// collectors.NewGoCollector()/NewProcessCollector() registry and the
// GCM-bound metric path in cmd/frontend and cmd/rule-evaluator.
func processRegistry() *prometheus.Registry {
	procRegistryOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		procRegistryVal = reg
	})
	return procRegistryVal
}
