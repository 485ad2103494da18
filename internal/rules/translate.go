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

// Package rules implements the declarative rule matcher: Java-dialect
// pattern translation, first-match-wins compiled matching, and name/label
// template substitution (spec.md §4.1).
package rules

import (
	"fmt"
	"strings"
)

// CompileError is the typed error raised by pattern translation/compilation
// failures, per spec.md §4.1.
type CompileError struct {
	Pattern string
	Feature string
	Cause   error
}

func (e *CompileError) Error() string {
	if e.Feature != "" {
		return fmt.Sprintf("rules: pattern %q uses unsupported feature %q", e.Pattern, e.Feature)
	}
	return fmt.Sprintf("rules: pattern %q: %v", e.Pattern, e.Cause)
}

func (e *CompileError) Unwrap() error { return e.Cause }

// translateJavaPattern converts a Java-dialect regex source (the dialect
// used by the reference Prometheus JMX exporter) into Go's RE2 dialect.
// It:
//   - rewrites named groups (?<name>...) to Go's (?P<name>...),
//   - rewrites possessive quantifiers ++, *+, ?+ to their greedy
//     equivalents (the behavioral difference is accepted, per spec.md §4.1),
//   - rejects atomic groups (?>...), lookahead (?=...)/(?!...), and
//     lookbehind (?<=...)/(?<!...) with a typed UnsupportedFeature error,
//   - preserves escape sequences (\X) verbatim.
//
// warnings collects non-fatal translation notes (e.g. possessive-quantifier
// rewrites) for the caller to log.
func translateJavaPattern(pattern string) (translated string, warnings []string, err error) {
	var b strings.Builder
	r := []rune(pattern)
	n := len(r)

	for i := 0; i < n; i++ {
		c := r[i]

		if c == '\\' && i+1 < n {
			// Escape sequence: copy verbatim, untouched.
			b.WriteRune(c)
			b.WriteRune(r[i+1])
			i++
			continue
		}

		if c == '(' && i+1 < n && r[i+1] == '?' {
			feature, consumed, isNamed := classifyGroup(r, i)
			switch feature {
			case featureAtomicGroup:
				return "", warnings, &CompileError{Pattern: pattern, Feature: "atomic group (?>...)"}
			case featureLookahead:
				return "", warnings, &CompileError{Pattern: pattern, Feature: "lookahead (?=...)/(?!...)"}
			case featureLookbehind:
				return "", warnings, &CompileError{Pattern: pattern, Feature: "lookbehind (?<=...)/(?<!...)"}
			case featureNamedGroup:
				if isNamed {
					b.WriteString("(?P<")
					i += consumed
					continue
				}
			}
		}

		if (c == '+' || c == '*' || c == '?') && i+1 < n && r[i+1] == '+' {
			// Possessive quantifier: rewrite to the greedy equivalent and
			// drop the trailing '+'. Go's RE2 engine has no possessive
			// quantifiers; this is an accepted behavioral difference.
			b.WriteRune(c)
			i++
			warnings = append(warnings, fmt.Sprintf("possessive quantifier %c+ rewritten to greedy %c", c, c))
			continue
		}

		b.WriteRune(c)
	}

	return b.String(), warnings, nil
}

type groupFeature int

const (
	featureNone groupFeature = iota
	featureNamedGroup
	featureAtomicGroup
	featureLookahead
	featureLookbehind
)

// classifyGroup inspects the "(?" construct starting at index i and reports
// which special-group feature it is. For a named group, consumed is how far
// the caller advances i (from '(' onto the '<'), so that the loop's next
// step resumes copying at the first rune of the name, then the closing ">".
func classifyGroup(r []rune, i int) (feature groupFeature, consumed int, isNamed bool) {
	n := len(r)
	// i points at '(' and r[i+1] == '?'.
	j := i + 2
	if j >= n {
		return featureNone, 0, false
	}
	switch r[j] {
	case '>':
		return featureAtomicGroup, 0, false
	case '=':
		return featureLookahead, 0, false
	case '!':
		return featureLookahead, 0, false
	case '<':
		if j+1 < n {
			switch r[j+1] {
			case '=':
				return featureLookbehind, 0, false
			case '!':
				return featureLookbehind, 0, false
			default:
				// (?<name>...) named group: consumed = 2 skips "(?", so
				// the caller's i += consumed lands i on the '<' it already
				// wrote as part of "(?P<".
				return featureNamedGroup, 2, true
			}
		}
	}
	return featureNone, 0, false
}
