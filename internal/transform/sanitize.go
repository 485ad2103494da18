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

package transform

import "strings"

// SanitizeMetricName enforces [A-Za-z_:][A-Za-z0-9_:]*, per spec.md §4.2:
// invalid characters become '_'; if the result then starts with a digit, a
// leading '_' is prepended. ok is false when any rewriting happened, so the
// caller can log original/sanitized forms.
func SanitizeMetricName(name string) (sanitized string, ok bool) {
	return sanitize(name, isNameStart, isNameCont)
}

// SanitizeLabelName enforces [A-Za-z_][A-Za-z0-9_]*, per spec.md §4.2.
func SanitizeLabelName(name string) (sanitized string, ok bool) {
	return sanitize(name, isLabelStart, isLabelCont)
}

// sanitize replaces every byte that fails contOK with '_', then, if the
// resulting first byte is valid as a continuation character but not as a
// start character (i.e. a digit), prepends a leading '_' rather than
// clobbering it — spec.md §8: "123abc" must sanitize to "_123abc", not
// "_23abc".
func sanitize(s string, startOK, contOK func(byte) bool) (string, bool) {
	if s == "" {
		return "_", false
	}
	b := []byte(s)
	changed := false
	for i, c := range b {
		if !contOK(c) {
			b[i] = '_'
			changed = true
		}
	}
	out := string(b)
	if !startOK(out[0]) {
		out = "_" + out
		changed = true
	}
	return out, !changed
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == ':'
}

func isNameCont(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

func isLabelStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isLabelCont(c byte) bool {
	return isLabelStart(c) || (c >= '0' && c <= '9')
}

// toLower is a tiny helper so callers don't need to import strings just for
// the optional lowercasing flags in spec.md §4.2.
func toLower(s string) string { return strings.ToLower(s) }
