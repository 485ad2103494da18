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

// Package transform is the transformation engine: it walks every numeric
// leaf of every successful JolokiaResponse, builds the flattened path
// described in spec.md §4.2, matches it against the rule set, and emits a
// PrometheusMetric per match.
package transform

import (
	"fmt"
	"sort"

	"github.com/jsoonworld/rJMX-Exporter/internal/jolokia"
	"github.com/jsoonworld/rJMX-Exporter/internal/objectname"
	"github.com/jsoonworld/rJMX-Exporter/internal/promtext"
	"github.com/jsoonworld/rJMX-Exporter/internal/rules"
)

// Options configures a Transform run.
type Options struct {
	LowercaseOutputName       bool
	LowercaseOutputLabelNames bool
}

// Stats reports per-scrape counters the caller (the HTTP scrape handler)
// folds into the exporter-info block and the self-observability registry.
type Stats struct {
	MetricsEmitted int
	Errors         int
	// PrecisionLoss counts numeric leaves whose integer magnitude exceeded
	// 2^53 when converted to float64 (spec.md §3/§8). These are advisory,
	// not failures: the metric is still emitted and this is not folded
	// into Errors.
	PrecisionLoss int
	// RuleMatches/RuleErrors are keyed by rule pattern string, matching the
	// internal metrics registry's per-rule keying (spec.md §4.6).
	RuleMatches map[string]int
	RuleErrors  map[string]int
}

func (s *Stats) recordMatch(pattern string) {
	if s.RuleMatches == nil {
		s.RuleMatches = make(map[string]int)
	}
	s.RuleMatches[pattern]++
}

func (s *Stats) recordRuleError(pattern string) {
	if s.RuleErrors == nil {
		s.RuleErrors = make(map[string]int)
	}
	s.RuleErrors[pattern]++
}

// RuleError wraps a matcher-layer error encountered while transforming one
// leaf, per spec.md §4.2/§7 ("Rule(...) wrapping matcher errors").
type RuleError struct {
	Path string
	Err  error
}

func (e *RuleError) Error() string { return fmt.Sprintf("transform: rule error at %q: %v", e.Path, e.Err) }
func (e *RuleError) Unwrap() error { return e.Err }

// InvalidNameError/InvalidLabelError are the engine-level sanitization
// errors from spec.md §4.2. They are non-fatal: the leaf is still emitted
// under the sanitized metric or label name, and the error count is
// incremented.
type InvalidNameError struct{ Original, Sanitized string }

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("transform: metric name %q sanitized to %q", e.Original, e.Sanitized)
}

type InvalidLabelError struct{ Original, Sanitized string }

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("transform: label name %q sanitized to %q", e.Original, e.Sanitized)
}

// PrecisionLossWarning reports that an integer attribute's magnitude
// exceeded 2^53 and lost precision converting to float64 (spec.md §3/§8).
// The metric is still emitted; this is advisory only and is not counted
// toward Stats.Errors.
type PrecisionLossWarning struct{ Path string }

func (e *PrecisionLossWarning) Error() string {
	return fmt.Sprintf("transform: integer at %q exceeds 2^53, converted to float64 with precision loss", e.Path)
}

// leaf is one pending (flattened path prefix, numeric AttrValue) pair on
// the iterative traversal worklist. Traversal is iterative rather than
// recursive per spec.md §9's DESIGN NOTES, bounding stack usage on
// pathologically nested composites.
type leaf struct {
	path string
	attr jolokia.AttrValue
}

// Transform runs the full pipeline over a batch of responses, returning
// every matched metric plus the set of non-fatal errors encountered.
func Transform(responses []jolokia.Response, ruleSet *rules.Set, opts Options) ([]promtext.Metric, Stats, []error) {
	var (
		out    []promtext.Metric
		stats  Stats
		errs   []error
	)

	for _, resp := range responses {
		if !resp.OK() {
			continue
		}
		for _, path := range flattenResponse(resp) {
			m, matched, err := matchLeaf(path.path, path.attr, ruleSet, opts)
			if err != nil {
				stats.Errors++
				errs = append(errs, &RuleError{Path: path.path, Err: err})
				continue
			}
			if !matched {
				continue
			}
			hadErr := false
			if m.nameErr != nil {
				stats.Errors++
				errs = append(errs, m.nameErr)
				hadErr = true
			}
			for _, lerr := range m.labelErrs {
				stats.Errors++
				errs = append(errs, lerr)
				hadErr = true
			}
			if hadErr {
				stats.recordRuleError(m.pattern)
			}
			if m.precisionLoss {
				stats.PrecisionLoss++
				errs = append(errs, &PrecisionLossWarning{Path: path.path})
			}
			stats.recordMatch(m.pattern)
			out = append(out, m.metric)
			stats.MetricsEmitted++
		}
	}

	return out, stats, errs
}

// flattenResponse expands one JolokiaResponse into every (flattened path,
// numeric leaf) pair per the traversal rules of spec.md §4.2.
func flattenResponse(resp jolokia.Response) []leaf {
	var out []leaf

	switch resp.Value.Kind {
	case jolokia.KindNumber:
		base := baseAttributePath(resp)
		out = append(out, leaf{path: base, attr: jolokia.FloatAttr(resp.Value.Number)})

	case jolokia.KindComposite:
		base := baseAttributePath(resp)
		out = append(out, walkComposite(base, resp.Value.Composite)...)

	case jolokia.KindArray:
		// Arrays have no canonical mapping to Prometheus labels at this
		// layer and are skipped entirely, per spec.md §4.2.

	case jolokia.KindWildcard:
		objNames := make([]string, 0, len(resp.Value.Wildcard))
		for objName := range resp.Value.Wildcard {
			objNames = append(objNames, objName)
		}
		sort.Strings(objNames)
		for _, objName := range objNames {
			name, err := objectname.Parse(objName)
			if err != nil {
				continue
			}
			base := name.FlattenedDomain()
			if attrName := baseAttributeSegment(resp); attrName != "" {
				base += "<" + attrName + ">"
			}
			out = append(out, walkComposite(base, resp.Value.Wildcard[objName])...)
		}
	}
	return out
}

// baseAttributeSegment returns the request's single attribute name when
// the request carried exactly one, else "" (bulk/none cases are handled by
// the composite's own keys becoming the base segment, per spec.md §4.2:
// "For a bulk response with multiple attributes, each entry of the
// composite is itself a top-level attribute").
func baseAttributeSegment(resp jolokia.Response) string {
	names := resp.Request.Attribute.Names()
	if len(names) == 1 {
		return names[0]
	}
	return ""
}

// baseAttributePath builds "domain<k=v>...<attr>" for a non-wildcard
// response, including the request's attribute name as a path segment
// before any nested composite keys — spec.md §4.2 calls this out as a
// correctness contract the matcher's patterns depend on.
func baseAttributePath(resp jolokia.Response) string {
	name, err := objectname.Parse(resp.Request.MBean)
	if err != nil {
		return resp.Request.MBean
	}
	base := name.FlattenedDomain()
	if attr := baseAttributeSegment(resp); attr != "" {
		base += "<" + attr + ">"
	}
	return base
}

// walkComposite performs the iterative composite traversal: numeric
// entries become leaves, nested composites are pushed back onto the
// worklist with an extended path, string/bool/null entries are skipped
// silently.
func walkComposite(basePath string, composite map[string]jolokia.AttrValue) []leaf {
	type pending struct {
		path string
		m    map[string]jolokia.AttrValue
	}
	var out []leaf
	work := []pending{{path: basePath, m: composite}}

	for len(work) > 0 {
		cur := work[0]
		work = work[1:]

		// Go randomizes map iteration order; entries are visited in
		// sorted key order so that the resulting leaf slice — and hence
		// the formatter's first-occurrence ordering — is deterministic
		// across runs for the same input, per spec.md §8.
		for _, key := range sortedKeys(cur.m) {
			v := cur.m[key]
			path := cur.path + "<" + key + ">"
			switch v.Kind {
			case jolokia.KindNumber:
				out = append(out, leaf{path: path, attr: v})
			case jolokia.KindComposite:
				work = append(work, pending{path: path, m: v.Composite})
			default:
				// string/bool/null/array: skipped silently.
			}
		}
	}
	return out
}

func sortedKeys(m map[string]jolokia.AttrValue) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type matchOutcome struct {
	metric        promtext.Metric
	nameErr       error
	labelErrs     []error
	pattern       string
	precisionLoss bool
}

// matchLeaf matches a single flattened path against ruleSet and, on match,
// builds the PrometheusMetric: substitutes templates, applies valueFactor
// exactly once, sanitizes name/labels, and applies the optional lowercase
// flags before sanitization (spec.md §4.2).
func matchLeaf(path string, attr jolokia.AttrValue, ruleSet *rules.Set, opts Options) (matchOutcome, bool, error) {
	match, err := ruleSet.MatchPath(path)
	if err != nil {
		return matchOutcome{}, false, err
	}
	if match == nil {
		return matchOutcome{}, false, nil
	}

	value, precisionLoss := attr.Float64()
	if match.Rule.ValueFactor != nil {
		value *= *match.Rule.ValueFactor
	}

	name := rules.Substitute(match.Rule.Name, match)
	if opts.LowercaseOutputName {
		name = toLower(name)
	}
	sanitizedName, nameOK := SanitizeMetricName(name)
	var nameErr error
	if !nameOK {
		nameErr = &InvalidNameError{Original: name, Sanitized: sanitizedName}
	}

	labels := make(map[string]string, len(match.Rule.Labels))
	var labelErrs []error
	for keyTpl, valTpl := range match.Rule.Labels {
		key := rules.Substitute(keyTpl, match)
		if opts.LowercaseOutputLabelNames {
			key = toLower(key)
		}
		sanitizedKey, keyOK := SanitizeLabelName(key)
		if !keyOK {
			labelErrs = append(labelErrs, &InvalidLabelError{Original: key, Sanitized: sanitizedKey})
		}
		labels[sanitizedKey] = rules.Substitute(valTpl, match)
	}

	metric := promtext.Metric{
		Name:   sanitizedName,
		Type:   string(match.Rule.MetricType),
		Help:   match.Rule.Help,
		Labels: labels,
		Value:  value,
	}

	return matchOutcome{metric: metric, nameErr: nameErr, labelErrs: labelErrs, pattern: match.Rule.Pattern, precisionLoss: precisionLoss}, true, nil
}
