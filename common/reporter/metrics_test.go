// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package reporter_test

import (
	"testing"

	"dosguard/common/helpers"
	"dosguard/common/reporter"
)

func TestMetrics(t *testing.T) {
	r := reporter.NewMock(t)

	counter1 := r.Counter(reporter.CounterOpts{
		Name: "counter1",
		Help: "Some counter",
	})
	counter1.Add(18)

	r.CounterFunc(reporter.CounterOpts{
		Name: "counter2",
		Help: "Some other counter",
	}, func() float64 { return 1.17 })

	counter3 := r.CounterVec(reporter.CounterOpts{
		Name: "counter3",
		Help: "Another counter",
	}, []string{"label1", "label2"})
	counter3.WithLabelValues("value1", "value2").Add(42)
	counter3.WithLabelValues("value3 space", "value4").Add(167)

	gauge1 := r.Gauge(reporter.GaugeOpts{
		Name: "gauge1",
		Help: "Some gauge",
	})
	gauge1.Set(1717)

	got := r.GetMetrics("dosguard_common_reporter_test_")
	expected := map[string]string{
		`counter1`: "18",
		`counter2`: "1.17",
		`counter3{label1="value1",label2="value2"}`:       "42",
		`counter3{label1="value3 space",label2="value4"}`: "167",
		`gauge1`: "1717",
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("GetMetrics() (-got, +want):\n%s", diff)
	}
}

func TestDuplicateMetrics(t *testing.T) {
	r := reporter.NewMock(t)

	counter1 := r.Counter(reporter.CounterOpts{
		Name: "counter1",
		Help: "Some counter",
	})
	counter1.Add(18)

	// Registering a second time should return the same collector.
	counter2 := r.Counter(reporter.CounterOpts{
		Name: "counter1",
		Help: "Some counter",
	})
	counter2.Add(4)

	got := r.GetMetrics("dosguard_common_reporter_test_")
	expected := map[string]string{
		`counter1`: "22",
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("GetMetrics() (-got, +want):\n%s", diff)
	}
}
