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

package jolokia

// Response is a JolokiaResponse: the result of a single read request. A
// response with Status != 200 is an error record whose Value is the zero
// Value (Kind == KindNull).
type Response struct {
	Request   Request
	Status    int
	Timestamp uint64
	Value     Value
	ErrorMsg  string
	ErrorType string
}

// OK reports whether this response represents a successful read (status
// 200). The transformation engine skips every non-OK response.
func (r Response) OK() bool { return r.Status == 200 }
