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

// Package objectname parses and renders JMX ObjectNames: a domain plus an
// unordered set of key=value properties, e.g.
// "java.lang:type=GarbageCollector,name=G1 Young Generation".
package objectname

import (
	"fmt"
	"sort"
	"strings"
)

// Name is a parsed JMX ObjectName.
type Name struct {
	Domain     string
	Properties map[string]string
}

// Parse parses "domain:key1=val1,key2=val2,...". Whitespace around tokens is
// trimmed. A pattern containing "*" in a property value is a legal wildcard
// ObjectName pattern and parses the same way.
func Parse(raw string) (Name, error) {
	domain, rest, ok := strings.Cut(raw, ":")
	domain = strings.TrimSpace(domain)
	if !ok {
		return Name{}, fmt.Errorf("objectname: %q missing ':' separating domain from properties", raw)
	}
	if domain == "" {
		return Name{}, fmt.Errorf("objectname: %q has an empty domain", raw)
	}

	props := make(map[string]string)
	for _, tok := range strings.Split(rest, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			return Name{}, fmt.Errorf("objectname: %q has property %q not in k=v form", raw, tok)
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" {
			return Name{}, fmt.Errorf("objectname: %q has property with empty key", raw)
		}
		props[k] = v
	}
	if len(props) == 0 {
		return Name{}, fmt.Errorf("objectname: %q has no properties", raw)
	}
	return Name{Domain: domain, Properties: props}, nil
}

// IsWildcard reports whether raw looks like a Jolokia wildcard MBean pattern
// (contains a literal "*").
func IsWildcard(raw string) bool {
	return strings.Contains(raw, "*")
}

// LooksLikeObjectName reports whether s has the shape of an ObjectName
// string without fully parsing it: it must contain both ':' and '='. This is
// the cheap pre-check used by the response parser's wildcard/composite
// disambiguation (spec §4.4).
func LooksLikeObjectName(s string) bool {
	return strings.Contains(s, ":") && strings.Contains(s, "=")
}

// SortedKeys returns the property keys in lexicographic order, used to build
// a deterministic flattened path regardless of JSON map iteration order.
func (n Name) SortedKeys() []string {
	keys := make([]string, 0, len(n.Properties))
	for k := range n.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FlattenedDomain renders "domain<k1=v1><k2=v2>..." with properties in
// lexicographic key order. This is the prefix of the flattened path the
// transformation engine matches rules against (spec §4.2).
func (n Name) FlattenedDomain() string {
	var b strings.Builder
	b.WriteString(n.Domain)
	for _, k := range n.SortedKeys() {
		b.WriteByte('<')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(n.Properties[k])
		b.WriteByte('>')
	}
	return b.String()
}

// String renders the canonical "domain:key1=val1,key2=val2" form with
// properties in lexicographic key order, used wherever a normalized
// ObjectName string is needed (e.g. as a Wildcard response map key on the
// way back out, or in diagnostics).
func (n Name) String() string {
	var b strings.Builder
	b.WriteString(n.Domain)
	b.WriteByte(':')
	for i, k := range n.SortedKeys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(n.Properties[k])
	}
	return b.String()
}
