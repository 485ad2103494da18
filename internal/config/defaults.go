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

// DefaultObjectNames is the built-in default JVM MBean set used when no
// whitelistObjectNames is configured (spec.md §2 MBean Selection step, and
// SPEC_FULL.md §4.7): the canonical set of ObjectName patterns the
// reference JMX exporter's bundled default config reads.
func DefaultObjectNames() []string {
	return []string{
		"java.lang:type=Memory",
		"java.lang:type=GarbageCollector,*",
		"java.lang:type=Threading",
		"java.lang:type=ClassLoading",
		"java.lang:type=OperatingSystem",
		"java.lang:type=Runtime",
		"java.lang:type=MemoryPool,*",
	}
}

// ResolveObjectNames applies the whitelist/else-default/blacklist-subtractive
// selection policy from spec.md §2: an explicit whitelist wins outright,
// otherwise the built-in default set is used; the blacklist is always
// subtracted afterward.
func ResolveObjectNames(whitelist, blacklist []string) []string {
	base := whitelist
	if len(base) == 0 {
		base = DefaultObjectNames()
	}
	if len(blacklist) == 0 {
		out := make([]string, len(base))
		copy(out, base)
		return out
	}
	excluded := make(map[string]bool, len(blacklist))
	for _, b := range blacklist {
		excluded[b] = true
	}
	out := make([]string, 0, len(base))
	for _, name := range base {
		if !excluded[name] {
			out = append(out, name)
		}
	}
	return out
}
