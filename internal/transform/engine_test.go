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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsoonworld/rJMX-Exporter/internal/jolokia"
	"github.com/jsoonworld/rJMX-Exporter/internal/rules"
)

func mustFloatFactor(v float64) *float64 { return &v }

func TestTransform_ScalarLeaf(t *testing.T) {
	resp := jolokia.Response{
		Status: 200,
		Request: jolokia.Request{
			MBean:     "java.lang:type=Threading",
			Attribute: jolokia.OneAttribute("ThreadCount"),
		},
		Value: jolokia.Value{Kind: jolokia.KindNumber, Number: 42},
	}
	ruleSet := rules.NewSet([]*rules.Rule{
		{Pattern: `java\.lang<type=Threading><ThreadCount>`, Name: "jvm_threads_current", MetricType: rules.TypeGauge},
	})

	metrics, stats, errs := Transform([]jolokia.Response{resp}, ruleSet, Options{})
	require.Empty(t, errs)
	require.Len(t, metrics, 1)
	assert.Equal(t, "jvm_threads_current", metrics[0].Name)
	assert.Equal(t, float64(42), metrics[0].Value)
	assert.Equal(t, 1, stats.MetricsEmitted)
	assert.Equal(t, 1, stats.RuleMatches[`java\.lang<type=Threading><ThreadCount>`])
}

func TestTransform_CompositeLeaf(t *testing.T) {
	resp := jolokia.Response{
		Status: 200,
		Request: jolokia.Request{
			MBean:     "java.lang:type=Memory",
			Attribute: jolokia.OneAttribute("HeapMemoryUsage"),
		},
		Value: jolokia.Value{
			Kind: jolokia.KindComposite,
			Composite: map[string]jolokia.AttrValue{
				"used": jolokia.IntAttr(100),
				"max":  jolokia.IntAttr(200),
			},
		},
	}
	ruleSet := rules.NewSet([]*rules.Rule{
		{
			Pattern:    `java\.lang<type=Memory><HeapMemoryUsage><(?<field>\w+)>`,
			Name:       "jvm_memory_heap_$field",
			MetricType: rules.TypeGauge,
		},
	})

	metrics, _, errs := Transform([]jolokia.Response{resp}, ruleSet, Options{})
	require.Empty(t, errs)
	require.Len(t, metrics, 2)

	names := map[string]float64{}
	for _, m := range metrics {
		names[m.Name] = m.Value
	}
	assert.Equal(t, float64(100), names["jvm_memory_heap_used"])
	assert.Equal(t, float64(200), names["jvm_memory_heap_max"])
}

func TestTransform_WildcardLeaf(t *testing.T) {
	resp := jolokia.Response{
		Status: 200,
		Request: jolokia.Request{
			MBean: "java.lang:type=GarbageCollector,*",
		},
		Value: jolokia.Value{
			Kind: jolokia.KindWildcard,
			Wildcard: map[string]map[string]jolokia.AttrValue{
				"java.lang:type=GarbageCollector,name=G1 Young Generation": {
					"CollectionCount": jolokia.IntAttr(5),
				},
				"java.lang:type=GarbageCollector,name=G1 Old Generation": {
					"CollectionCount": jolokia.IntAttr(1),
				},
			},
		},
	}
	ruleSet := rules.NewSet([]*rules.Rule{
		{
			Pattern:    `name=(?<name>[^>]+)><type=GarbageCollector><CollectionCount>`,
			Name:       "jvm_gc_collection_count",
			MetricType: rules.TypeCounter,
			Labels:     map[string]string{"gc": "$name"},
		},
	})

	metrics, _, errs := Transform([]jolokia.Response{resp}, ruleSet, Options{})
	require.Empty(t, errs)
	require.Len(t, metrics, 2)
	for _, m := range metrics {
		assert.Equal(t, "jvm_gc_collection_count", m.Name)
		assert.NotEmpty(t, m.Labels["gc"])
	}
}

func TestTransform_ValueFactorAppliedOnce(t *testing.T) {
	resp := jolokia.Response{
		Status:  200,
		Request: jolokia.Request{MBean: "x:type=X", Attribute: jolokia.OneAttribute("Uptime")},
		Value:   jolokia.Value{Kind: jolokia.KindNumber, Number: 1000},
	}
	ruleSet := rules.NewSet([]*rules.Rule{
		{Pattern: `x<type=X><Uptime>`, Name: "uptime_seconds", MetricType: rules.TypeGauge, ValueFactor: mustFloatFactor(0.001)},
	})
	metrics, _, errs := Transform([]jolokia.Response{resp}, ruleSet, Options{})
	require.Empty(t, errs)
	require.Len(t, metrics, 1)
	assert.Equal(t, float64(1), metrics[0].Value)
}

func TestTransform_NonOKResponsesSkipped(t *testing.T) {
	resp := jolokia.Response{Status: 404}
	ruleSet := rules.NewSet(nil)
	metrics, stats, errs := Transform([]jolokia.Response{resp}, ruleSet, Options{})
	assert.Empty(t, metrics)
	assert.Empty(t, errs)
	assert.Equal(t, 0, stats.MetricsEmitted)
}

func TestTransform_Deterministic_AcrossRuns(t *testing.T) {
	resp := jolokia.Response{
		Status: 200,
		Request: jolokia.Request{
			MBean: "java.lang:type=GarbageCollector,*",
		},
		Value: jolokia.Value{
			Kind: jolokia.KindWildcard,
			Wildcard: map[string]map[string]jolokia.AttrValue{
				"java.lang:type=GarbageCollector,name=Z": {"CollectionCount": jolokia.IntAttr(1)},
				"java.lang:type=GarbageCollector,name=A": {"CollectionCount": jolokia.IntAttr(2)},
				"java.lang:type=GarbageCollector,name=M": {"CollectionCount": jolokia.IntAttr(3)},
			},
		},
	}
	ruleSet := rules.NewSet([]*rules.Rule{
		{
			Pattern: `name=(?<name>[^>]+)><type=GarbageCollector><CollectionCount>`,
			Name:    "jvm_gc_collection_count",
			Labels:  map[string]string{"gc": "$name"},
		},
	})

	var runs [][]string
	for i := 0; i < 5; i++ {
		metrics, _, _ := Transform([]jolokia.Response{resp}, ruleSet, Options{})
		var order []string
		for _, m := range metrics {
			order = append(order, m.Labels["gc"])
		}
		runs = append(runs, order)
	}
	for _, run := range runs[1:] {
		assert.Equal(t, runs[0], run)
	}
}

func TestTransform_InvalidNameSanitized_ErrorRecorded(t *testing.T) {
	resp := jolokia.Response{
		Status:  200,
		Request: jolokia.Request{MBean: "x:type=X", Attribute: jolokia.OneAttribute("V")},
		Value:   jolokia.Value{Kind: jolokia.KindNumber, Number: 1},
	}
	ruleSet := rules.NewSet([]*rules.Rule{
		{Pattern: `x<type=X><V>`, Name: "123invalid", MetricType: rules.TypeGauge},
	})
	metrics, stats, errs := Transform([]jolokia.Response{resp}, ruleSet, Options{})
	require.Len(t, metrics, 1)
	assert.Equal(t, "_123invalid", metrics[0].Name)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.RuleErrors[`x<type=X><V>`])
}

func TestTransform_LowercaseOptions(t *testing.T) {
	resp := jolokia.Response{
		Status:  200,
		Request: jolokia.Request{MBean: "x:type=X", Attribute: jolokia.OneAttribute("V")},
		Value:   jolokia.Value{Kind: jolokia.KindNumber, Number: 1},
	}
	ruleSet := rules.NewSet([]*rules.Rule{
		{Pattern: `x<type=X><V>`, Name: "JVM_Metric", Labels: map[string]string{"LabelKey": "v"}},
	})
	metrics, _, errs := Transform([]jolokia.Response{resp}, ruleSet, Options{LowercaseOutputName: true, LowercaseOutputLabelNames: true})
	require.Empty(t, errs)
	require.Len(t, metrics, 1)
	assert.Equal(t, "jvm_metric", metrics[0].Name)
	_, hasLower := metrics[0].Labels["labelkey"]
	assert.True(t, hasLower)
}
