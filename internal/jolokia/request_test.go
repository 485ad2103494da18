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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_MarshalJSON_NoAttribute_FieldOmitted(t *testing.T) {
	req := ReadRequest("java.lang:type=Memory", NoAttribute())
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	_, present := generic["attribute"]
	assert.False(t, present, "attribute key must be omitted entirely for AttrNone")
}

func TestRequest_MarshalJSON_OneAttribute_String(t *testing.T) {
	req := ReadRequest("java.lang:type=Memory", OneAttribute("HeapMemoryUsage"))
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "HeapMemoryUsage", generic["attribute"])
}

func TestRequest_MarshalJSON_ManyAttributes_Array(t *testing.T) {
	req := ReadRequest("java.lang:type=Memory", ManyAttributes([]string{"A", "B"}))
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, []interface{}{"A", "B"}, generic["attribute"])
}

func TestAttributeSelector_UnmarshalJSON_Null(t *testing.T) {
	var a AttributeSelector
	require.NoError(t, a.UnmarshalJSON([]byte("null")))
	assert.True(t, a.IsNone())
}

func TestAttributeSelector_UnmarshalJSON_String(t *testing.T) {
	var a AttributeSelector
	require.NoError(t, a.UnmarshalJSON([]byte(`"HeapMemoryUsage"`)))
	assert.False(t, a.IsNone())
	assert.Equal(t, []string{"HeapMemoryUsage"}, a.Names())
}

func TestAttributeSelector_UnmarshalJSON_Array(t *testing.T) {
	var a AttributeSelector
	require.NoError(t, a.UnmarshalJSON([]byte(`["A","B"]`)))
	assert.Equal(t, []string{"A", "B"}, a.Names())
}

func TestAttributeSelector_RoundTrip(t *testing.T) {
	for _, a := range []AttributeSelector{NoAttribute(), OneAttribute("X"), ManyAttributes([]string{"X", "Y"})} {
		data, err := json.Marshal(a)
		require.NoError(t, err)
		var got AttributeSelector
		require.NoError(t, got.UnmarshalJSON(data))
		assert.Equal(t, a.IsNone(), got.IsNone())
		assert.Equal(t, a.Names(), got.Names())
	}
}
