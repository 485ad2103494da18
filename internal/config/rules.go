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

package config

import (
	"fmt"

	"github.com/jsoonworld/rJMX-Exporter/internal/rules"
)

// BuildRuleSet converts the configuration file's rule entries into a
// rules.Set, preserving declaration order (first-match-wins semantics are
// load-bearing, spec.md §9). Each rule's structural invariants are checked
// eagerly; pattern compilability remains lazy per rules.Rule.Compile.
func BuildRuleSet(entries []RuleConfig) (*rules.Set, error) {
	out := make([]*rules.Rule, 0, len(entries))
	for i, e := range entries {
		r := &rules.Rule{
			Pattern:     e.Pattern,
			Name:        e.Name,
			MetricType:  rules.MetricType(e.Type),
			Labels:      e.Labels,
			Help:        e.Help,
			Value:       e.Value,
			ValueFactor: e.ValueFactor,
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("config: rules[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return rules.NewSet(out), nil
}
