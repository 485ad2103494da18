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

import "encoding/json"

// AttributeSelector is the none/one/many distinction of RequestDescriptor's
// "attribute" field. The zero value is AttrNone.
type AttributeSelector struct {
	names []string
	set   bool
}

// NoAttribute requests every attribute of the MBean.
func NoAttribute() AttributeSelector { return AttributeSelector{} }

// OneAttribute requests a single named attribute.
func OneAttribute(name string) AttributeSelector {
	return AttributeSelector{names: []string{name}, set: true}
}

// ManyAttributes requests an explicit set of named attributes.
func ManyAttributes(names []string) AttributeSelector {
	return AttributeSelector{names: names, set: true}
}

// IsNone reports whether this selector means "all attributes".
func (a AttributeSelector) IsNone() bool { return !a.set }

// Names returns the requested attribute names, empty for AttrNone.
func (a AttributeSelector) Names() []string { return a.names }

// MarshalJSON encodes "none" as JSON null, one name as a JSON string, and
// several names as a JSON array. Omitting the field entirely for "none"
// (spec.md §3's correctness contract) is done by Request.MarshalJSON.
func (a AttributeSelector) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	if len(a.names) == 1 {
		return json.Marshal(a.names[0])
	}
	return json.Marshal(a.names)
}

// UnmarshalJSON accepts a JSON string, a JSON array of strings, or the
// absence of the field (represented here as JSON null, since
// RequestDescriptor marshals the field with omitempty).
func (a *AttributeSelector) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = NoAttribute()
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = OneAttribute(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*a = ManyAttributes(many)
		return nil
	}
	*a = NoAttribute()
	return nil
}

// RequestType is the Jolokia request's "type" field.
type RequestType string

const (
	RequestRead   RequestType = "read"
	RequestSearch RequestType = "search"
)

// Request is a RequestDescriptor: one Jolokia read or search request.
type Request struct {
	Type      RequestType       `json:"type"`
	MBean     string            `json:"mbean"`
	Attribute AttributeSelector `json:"attribute,omitempty"`
}

// MarshalJSON is defined explicitly so that AttrNone's "omitempty" on a
// struct-valued field (which encoding/json does not elide by default)
// drops the key entirely, matching spec.md §3.
func (r Request) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type      RequestType `json:"type"`
		MBean     string      `json:"mbean"`
		Attribute interface{} `json:"attribute,omitempty"`
	}
	w := wire{Type: r.Type, MBean: r.MBean}
	if !r.Attribute.IsNone() {
		if len(r.Attribute.Names()) == 1 {
			w.Attribute = r.Attribute.Names()[0]
		} else {
			w.Attribute = r.Attribute.Names()
		}
	}
	return json.Marshal(w)
}

// ReadRequest builds a "read" RequestDescriptor.
func ReadRequest(mbean string, attr AttributeSelector) Request {
	return Request{Type: RequestRead, MBean: mbean, Attribute: attr}
}
