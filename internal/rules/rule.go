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

package rules

import (
	"fmt"
	"math"
	"sync"

	"github.com/grafana/regexp"
)

// MetricType is a Rule's declared Prometheus metric type.
type MetricType string

const (
	TypeGauge     MetricType = "gauge"
	TypeCounter   MetricType = "counter"
	TypeHistogram MetricType = "histogram"
	TypeUntyped   MetricType = "untyped"
)

// Rule is a single declarative mapping from a pattern over flattened paths
// to a Prometheus metric shape (spec.md §3).
type Rule struct {
	Pattern     string
	Name        string
	MetricType  MetricType
	Labels      map[string]string // label-name-template -> label-value-template
	Help        string
	Value       string // reserved, see spec.md §9; parsed but never evaluated
	ValueFactor *float64

	compileOnce sync.Once
	compiled    *regexp.Regexp
	compileErr  error
	warnings    []string
	warnOnce    sync.Once
}

// Validate checks the structural invariants from spec.md §3 that don't
// require regex compilation: Name is non-empty, ValueFactor (if set) is
// finite. Pattern compilability is checked lazily by Compile.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rules: rule with pattern %q has an empty name template", r.Pattern)
	}
	if r.ValueFactor != nil && (math.IsNaN(*r.ValueFactor) || math.IsInf(*r.ValueFactor, 0)) {
		return fmt.Errorf("rules: rule %q has a non-finite valueFactor", r.Name)
	}
	if r.MetricType == "" {
		r.MetricType = TypeUntyped
	}
	return nil
}

// Compile lazily translates and compiles Pattern, memoizing the result with
// sync.Once so concurrent first-callers never double-compile and always
// observe the same compiled artifact (spec.md §5/§9: "happens-before-once
// primitive").
func (r *Rule) Compile() (*regexp.Regexp, []string, error) {
	r.compileOnce.Do(func() {
		native, warnings, err := translateJavaPattern(r.Pattern)
		r.warnings = warnings
		if err != nil {
			r.compileErr = err
			return
		}
		re, err := regexp.Compile(native)
		if err != nil {
			r.compileErr = &CompileError{Pattern: r.Pattern, Cause: err}
			return
		}
		r.compiled = re
	})
	return r.compiled, r.warnings, r.compileErr
}

// logWarningsOnce reports every translation warning produced by Compile to
// emit exactly once per rule, the first time it is called after Compile has
// run. emit is a caller-supplied sink rather than a concrete logger type, so
// this package stays logger-agnostic (spec.md §4.1: "rewrites ... and logs
// a warning" — the *how* of logging belongs to the caller).
func (r *Rule) logWarningsOnce(emit func(pattern, warning string)) {
	if emit == nil {
		return
	}
	r.warnOnce.Do(func() {
		for _, w := range r.warnings {
			emit(r.Pattern, w)
		}
	})
}

// Set is an ordered, first-match-wins RuleSet (spec.md §3). Declaration
// order from the configuration file must be preserved end to end, since
// reordering rules changes output (spec.md §9).
type Set struct {
	Rules []*Rule

	// OnWarning, if set, receives each rule's pattern-translation warnings
	// (e.g. possessive-quantifier rewrites) exactly once, the first time
	// that rule is compiled.
	OnWarning func(pattern, warning string)
}

// NewSet builds a Set from rules in declaration order.
func NewSet(rules []*Rule) *Set {
	return &Set{Rules: rules}
}

// Match is the outcome of matching a flattened path against a Set: the
// winning Rule and its capture groups.
type Match struct {
	Rule     *Rule
	Captures []string       // index 0 is the full match, 1..N are groups
	Names    []string       // SubexpNames() of the winning rule's pattern
}

// MatchPath returns the first Rule in declaration order whose compiled
// pattern matches anywhere in path (unanchored substring match, preserved
// deliberately per spec.md §9's open question). No match returns (nil, nil).
func (s *Set) MatchPath(path string) (*Match, error) {
	for _, rule := range s.Rules {
		re, _, err := rule.Compile()
		if err != nil {
			return nil, fmt.Errorf("rules: compiling rule %q: %w", rule.Name, err)
		}
		rule.logWarningsOnce(s.OnWarning)
		loc := re.FindStringSubmatchIndex(path)
		if loc == nil {
			continue
		}
		captures := make([]string, len(loc)/2)
		for i := range captures {
			start, end := loc[2*i], loc[2*i+1]
			if start < 0 || end < 0 {
				continue
			}
			captures[i] = path[start:end]
		}
		return &Match{Rule: rule, Captures: captures, Names: re.SubexpNames()}, nil
	}
	return nil, nil
}
