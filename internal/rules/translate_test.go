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

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateJavaPattern_NamedGroup(t *testing.T) {
	got, warnings, err := translateJavaPattern(`java.lang<type=(?<type>.+)>`)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, `java.lang<type=(?P<type>.+)>`, got)
}

func TestTranslateJavaPattern_MultipleNamedGroups(t *testing.T) {
	got, _, err := translateJavaPattern(`(?<a>\w+)_(?<b>\w+)`)
	require.NoError(t, err)
	assert.Equal(t, `(?P<a>\w+)_(?P<b>\w+)`, got)
}

func TestTranslateJavaPattern_PossessiveQuantifiers(t *testing.T) {
	cases := map[string]string{
		`a++`: `a+`,
		`a*+`: `a*`,
		`a?+`: `a?`,
	}
	for in, want := range cases {
		got, warnings, err := translateJavaPattern(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Len(t, warnings, 1)
	}
}

func TestTranslateJavaPattern_EscapesPreserved(t *testing.T) {
	got, _, err := translateJavaPattern(`\d+\.\d+`)
	require.NoError(t, err)
	assert.Equal(t, `\d+\.\d+`, got)
}

func TestTranslateJavaPattern_RejectsAtomicGroup(t *testing.T) {
	_, _, err := translateJavaPattern(`(?>abc)`)
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Feature, "atomic")
}

func TestTranslateJavaPattern_RejectsLookahead(t *testing.T) {
	for _, p := range []string{`a(?=b)`, `a(?!b)`} {
		_, _, err := translateJavaPattern(p)
		require.Error(t, err, p)
		var cerr *CompileError
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Feature, "lookahead")
	}
}

func TestTranslateJavaPattern_RejectsLookbehind(t *testing.T) {
	for _, p := range []string{`(?<=a)b`, `(?<!a)b`} {
		_, _, err := translateJavaPattern(p)
		require.Error(t, err, p)
		var cerr *CompileError
		require.ErrorAs(t, err, &cerr)
		assert.Contains(t, cerr.Feature, "lookbehind")
	}
}

func TestTranslateJavaPattern_PlainPatternUnchanged(t *testing.T) {
	got, warnings, err := translateJavaPattern(`java\.lang<type=Memory><(\w+)>`)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, `java\.lang<type=Memory><(\w+)>`, got)
}
