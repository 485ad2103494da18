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

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/jsoonworld/rJMX-Exporter/internal/objectname"
)

// wireResponse mirrors the raw JSON shape of a single Jolokia response,
// decoded with json.Number so integer/float disambiguation (spec.md §4.4)
// can happen after decoding rather than losing precision in float64 first.
type wireResponse struct {
	Request struct {
		Type      string          `json:"type"`
		MBean     string          `json:"mbean"`
		Attribute json.RawMessage `json:"attribute"`
	} `json:"request"`
	Status    int             `json:"status"`
	Timestamp uint64          `json:"timestamp"`
	Value     json.RawMessage `json:"value"`
	Error     string          `json:"error"`
	ErrorType string          `json:"error_type"`
}

// ParseResponse parses a single Jolokia response body.
func ParseResponse(body []byte) (Response, error) {
	var w wireResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return Response{}, newError(ErrJSONParse, 0, fmt.Sprintf("decoding response: %v", err), err)
	}
	return fromWire(w)
}

// ParseBulkResponse parses a JSON array of Jolokia responses, in request
// order.
func ParseBulkResponse(body []byte) ([]Response, error) {
	var raws []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raws); err != nil {
		return nil, newError(ErrJSONParse, 0, fmt.Sprintf("decoding bulk response: %v", err), err)
	}
	out := make([]Response, 0, len(raws))
	for _, raw := range raws {
		var w wireResponse
		d := json.NewDecoder(bytes.NewReader(raw))
		d.UseNumber()
		if err := d.Decode(&w); err != nil {
			return nil, newError(ErrJSONParse, 0, fmt.Sprintf("decoding bulk element: %v", err), err)
		}
		resp, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func fromWire(w wireResponse) (Response, error) {
	resp := Response{
		Status:    w.Status,
		Timestamp: w.Timestamp,
		ErrorMsg:  w.Error,
		ErrorType: w.ErrorType,
	}
	resp.Request = Request{Type: RequestType(w.Request.Type), MBean: w.Request.MBean}
	if len(w.Request.Attribute) > 0 {
		if err := resp.Request.Attribute.UnmarshalJSON(w.Request.Attribute); err != nil {
			return Response{}, newError(ErrJSONParse, 0, "decoding request.attribute", err)
		}
	}

	if resp.Status != 200 || len(w.Value) == 0 {
		resp.Value = Value{Kind: KindNull}
		return resp, nil
	}

	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(w.Value))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return Response{}, newError(ErrJSONParse, 0, fmt.Sprintf("decoding value: %v", err), err)
	}
	v, err := decodeTopValue(generic)
	if err != nil {
		return Response{}, err
	}
	resp.Value = v
	return resp, nil
}

// decodeTopValue classifies the decoded top-level "value" as Number,
// String, Bool, Null, Composite, or Wildcard per spec.md §4.4.
func decodeTopValue(v interface{}) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{Kind: KindNull}, nil
	case json.Number:
		f, i, isInt, err := decodeNumber(t)
		if err != nil {
			return Value{}, err
		}
		_ = i
		_ = isInt
		return Value{Kind: KindNumber, Number: f}, nil
	case string:
		return Value{Kind: KindString, Str: t}, nil
	case bool:
		return Value{Kind: KindBool, Bool: t}, nil
	case []interface{}:
		arr, err := decodeArray(t)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindArray, Array: arr}, nil
	case map[string]interface{}:
		if isWildcardShape(t) {
			wc := make(map[string]map[string]AttrValue, len(t))
			for key, raw := range t {
				inner, ok := raw.(map[string]interface{})
				if !ok {
					return Value{}, newError(ErrJSONParse, 0, "wildcard entry value is not an object", nil)
				}
				attrs, err := decodeComposite(inner)
				if err != nil {
					return Value{}, err
				}
				wc[key] = attrs
			}
			return Value{Kind: KindWildcard, Wildcard: wc}, nil
		}
		composite, err := decodeComposite(t)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindComposite, Composite: composite}, nil
	default:
		return Value{}, newError(ErrJSONParse, 0, fmt.Sprintf("unsupported JSON value type %T", v), nil)
	}
}

// isWildcardShape implements spec.md §4.4's disambiguation rule exactly:
// non-empty, every key looks like an ObjectName, every value is an object.
func isWildcardShape(m map[string]interface{}) bool {
	if len(m) == 0 {
		return false
	}
	for k, v := range m {
		if !objectname.LooksLikeObjectName(k) {
			return false
		}
		if _, ok := v.(map[string]interface{}); !ok {
			return false
		}
	}
	return true
}

func decodeComposite(m map[string]interface{}) (map[string]AttrValue, error) {
	out := make(map[string]AttrValue, len(m))
	for k, v := range m {
		av, err := decodeAttrValue(v)
		if err != nil {
			return nil, err
		}
		out[k] = av
	}
	return out, nil
}

func decodeArray(items []interface{}) ([]AttrValue, error) {
	out := make([]AttrValue, 0, len(items))
	for _, v := range items {
		av, err := decodeAttrValue(v)
		if err != nil {
			return nil, err
		}
		out = append(out, av)
	}
	return out, nil
}

func decodeAttrValue(v interface{}) (AttrValue, error) {
	switch t := v.(type) {
	case nil:
		return NullAttr(), nil
	case json.Number:
		f, i, isInt, err := decodeNumber(t)
		if err != nil {
			return AttrValue{}, err
		}
		if isInt {
			return IntAttr(i), nil
		}
		return FloatAttr(f), nil
	case string:
		return StringAttr(t), nil
	case bool:
		return BoolAttr(t), nil
	case []interface{}:
		arr, err := decodeArray(t)
		if err != nil {
			return AttrValue{}, err
		}
		return AttrValue{Kind: KindArray, Array: arr}, nil
	case map[string]interface{}:
		composite, err := decodeComposite(t)
		if err != nil {
			return AttrValue{}, err
		}
		return AttrValue{Kind: KindComposite, Composite: composite}, nil
	default:
		return AttrValue{}, newError(ErrJSONParse, 0, fmt.Sprintf("unsupported JSON attribute type %T", v), nil)
	}
}

// decodeNumber classifies a json.Number as Integer(i64) if it fits exactly,
// Float(f64) otherwise, per spec.md §4.4.
func decodeNumber(n json.Number) (f float64, i int64, isInt bool, err error) {
	if iv, ierr := n.Int64(); ierr == nil {
		return float64(iv), iv, true, nil
	}
	fv, ferr := n.Float64()
	if ferr != nil {
		return 0, 0, false, newError(ErrJSONParse, 0, fmt.Sprintf("coercing %q to float64: %v", n.String(), ferr), ferr)
	}
	if math.IsNaN(fv) || math.IsInf(fv, 0) {
		return fv, 0, false, nil
	}
	return fv, 0, false, nil
}
