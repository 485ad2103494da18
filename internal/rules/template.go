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
	"strconv"
	"strings"
)

// Substitute expands a name/label template against a Match's captures, per
// spec.md §4.1:
//   - $N (N one or more decimal digits) references the N-th unnamed
//     capture group,
//   - $ident (a letter followed by letters and digits only — underscores
//     terminate the identifier) references a named group,
//   - missing groups substitute to the empty string,
//   - a literal '$' at end of template, or followed by a non-identifier
//     character, is preserved as-is.
func Substitute(template string, m *Match) string {
	var b strings.Builder
	r := []rune(template)
	n := len(r)

	for i := 0; i < n; i++ {
		c := r[i]
		if c != '$' {
			b.WriteRune(c)
			continue
		}
		if i+1 >= n {
			b.WriteByte('$')
			break
		}
		next := r[i+1]
		switch {
		case next >= '0' && next <= '9':
			j := i + 1
			for j < n && r[j] >= '0' && r[j] <= '9' {
				j++
			}
			idx, _ := strconv.Atoi(string(r[i+1 : j]))
			b.WriteString(captureByIndex(m, idx))
			i = j - 1
		case isIdentStart(next):
			j := i + 1
			for j < n && isIdentCont(r[j]) {
				j++
			}
			name := string(r[i+1 : j])
			b.WriteString(captureByName(m, name))
			i = j - 1
		default:
			b.WriteByte('$')
		}
	}
	return b.String()
}

// isIdentStart reports whether c can start a named-group identifier: a
// letter.
func isIdentStart(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isIdentCont reports whether c can continue a named-group identifier:
// letters and digits only. Underscores deliberately do NOT continue the
// identifier, per spec.md §4.1 ("underscores terminate the identifier"),
// so that "jvm_$type_$attr" substitutes $type and $attr with the literal
// underscores preserved around them.
func isIdentCont(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func captureByIndex(m *Match, idx int) string {
	if m == nil || idx < 0 || idx >= len(m.Captures) {
		return ""
	}
	return m.Captures[idx]
}

func captureByName(m *Match, name string) string {
	if m == nil {
		return ""
	}
	for i, n := range m.Names {
		if n == name && i < len(m.Captures) {
			return m.Captures[i]
		}
	}
	return ""
}
