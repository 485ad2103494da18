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

package server

import "net/url"

// SanitizeTarget strips any "user:pass@" portion of a Jolokia URL, reducing
// it to "host:port" or "host", per spec.md §6: "This prevents credentials
// leaking through the exposition endpoint." Falls back to the raw string
// unmodified if it doesn't parse as a URL at all (still credential-free in
// that case, since there's no recognizable userinfo to strip).
func SanitizeTarget(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
