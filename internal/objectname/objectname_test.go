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

package objectname

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	n, err := Parse("java.lang:type=GarbageCollector,name=G1 Young Generation")
	require.NoError(t, err)
	assert.Equal(t, "java.lang", n.Domain)
	assert.Equal(t, "GarbageCollector", n.Properties["type"])
	assert.Equal(t, "G1 Young Generation", n.Properties["name"])
}

func TestParse_TrimsWhitespace(t *testing.T) {
	n, err := Parse(" java.lang : type = Memory ")
	require.NoError(t, err)
	assert.Equal(t, "java.lang", n.Domain)
	assert.Equal(t, "Memory", n.Properties["type"])
}

func TestParse_Errors(t *testing.T) {
	cases := []string{
		"java.lang",                 // missing ':'
		":type=Memory",              // empty domain
		"java.lang:",                // no properties
		"java.lang:typeonly",        // not k=v
		"java.lang:=Memory",         // empty key
	}
	for _, raw := range cases {
		_, err := Parse(raw)
		assert.Error(t, err, raw)
	}
}

func TestIsWildcard(t *testing.T) {
	assert.True(t, IsWildcard("java.lang:type=GarbageCollector,*"))
	assert.False(t, IsWildcard("java.lang:type=Memory"))
}

func TestLooksLikeObjectName(t *testing.T) {
	assert.True(t, LooksLikeObjectName("java.lang:type=Memory"))
	assert.False(t, LooksLikeObjectName("HeapMemoryUsage"))
	assert.False(t, LooksLikeObjectName("a=b"))
}

func TestFlattenedDomain_LexicographicOrder(t *testing.T) {
	n := Name{Domain: "java.lang", Properties: map[string]string{
		"type": "GarbageCollector",
		"name": "G1 Young Generation",
	}}
	// "name" sorts before "type".
	assert.Equal(t, "java.lang<name=G1 Young Generation><type=GarbageCollector>", n.FlattenedDomain())
}

func TestString_CanonicalForm(t *testing.T) {
	n := Name{Domain: "java.lang", Properties: map[string]string{"type": "Memory"}}
	assert.Equal(t, "java.lang:type=Memory", n.String())
}

func TestSortedKeys_Deterministic(t *testing.T) {
	n := Name{Domain: "d", Properties: map[string]string{"z": "1", "a": "2", "m": "3"}}
	assert.Equal(t, []string{"a", "m", "z"}, n.SortedKeys())
}
