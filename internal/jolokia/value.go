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

// Kind tags the variant held by a Value. Go has no native sum type, so
// Value/AttrValue are encoded as a Kind enum plus payload fields that are
// only meaningful for the matching Kind, per the teacher-independent
// DESIGN NOTES in spec.md §9 ("Implementers without sum types should encode
// a variant tag plus a payload union").
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindComposite
	KindArray
	KindWildcard
)

// Value is an MBeanValue: the top-level shape of a single Jolokia response's
// "value" field.
type Value struct {
	Kind      Kind
	Number    float64
	Str       string
	Bool      bool
	Composite map[string]AttrValue    // KindComposite
	Array     []AttrValue             // KindArray
	Wildcard  map[string]map[string]AttrValue // KindWildcard: ObjectName string -> attribute map
}

// AttrValue is an AttributeValue: the same variant set as Value but with
// integers and floats kept distinct, since integers beyond 2^53 need the
// precision-loss warning described in spec.md §3/§8.
type AttrValue struct {
	Kind      Kind
	IsInt     bool // only meaningful when Kind == KindNumber
	Int       int64
	Float     float64
	Str       string
	Bool      bool
	Composite map[string]AttrValue
	Array     []AttrValue
}

// IsNumeric reports whether the attribute value is a leaf the transformation
// engine should consider for metric emission.
func (a AttrValue) IsNumeric() bool {
	return a.Kind == KindNumber
}

// maxExactInt is the largest integer magnitude an IEEE-754 float64
// represents exactly (2^53).
const maxExactInt = int64(1) << 53

// Float64 converts a numeric AttrValue to float64. The caller is expected to
// have checked IsNumeric first; precisionLoss reports whether the
// conversion lost integer precision (magnitude beyond 2^53), per spec.md
// §3/§8: the conversion MUST still happen, only a warning is owed.
func (a AttrValue) Float64() (v float64, precisionLoss bool) {
	if !a.IsInt {
		return a.Float, false
	}
	lost := a.Int > maxExactInt || a.Int < -maxExactInt
	return float64(a.Int), lost
}

// IntAttr builds an integer-valued numeric AttrValue.
func IntAttr(v int64) AttrValue { return AttrValue{Kind: KindNumber, IsInt: true, Int: v} }

// FloatAttr builds a float-valued numeric AttrValue.
func FloatAttr(v float64) AttrValue { return AttrValue{Kind: KindNumber, Float: v} }

// StringAttr builds a string-valued AttrValue.
func StringAttr(v string) AttrValue { return AttrValue{Kind: KindString, Str: v} }

// BoolAttr builds a bool-valued AttrValue.
func BoolAttr(v bool) AttrValue { return AttrValue{Kind: KindBool, Bool: v} }

// NullAttr is the explicit-null AttrValue: retained, not dropped, per
// spec.md §4.4 ("null values are retained as explicit Null... the engine
// ignores them but they remain visible for debugging").
func NullAttr() AttrValue { return AttrValue{Kind: KindNull} }
