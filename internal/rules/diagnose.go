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

// Diagnostic is one rule's compile-time status, used by the CLI's
// --dry-run mode (spec.md §6: "compile every rule through the Java->native
// regex converter, report per-rule status").
type Diagnostic struct {
	Pattern  string   `json:"pattern" yaml:"pattern"`
	Name     string   `json:"name" yaml:"name"`
	OK       bool     `json:"ok" yaml:"ok"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Diagnose compiles every rule in the set and reports per-rule status
// without stopping at the first failure.
func Diagnose(set *Set) []Diagnostic {
	out := make([]Diagnostic, 0, len(set.Rules))
	for _, r := range set.Rules {
		_, warnings, err := r.Compile()
		d := Diagnostic{Pattern: r.Pattern, Name: r.Name, OK: err == nil, Warnings: warnings}
		if err != nil {
			d.Error = err.Error()
		}
		out = append(out, d)
	}
	return out
}
