// SPDX-FileCopyrightText: 2024 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package status

import (
	"sync"
	"testing"
	"time"

	"dosguard/common/helpers"
	"dosguard/common/reporter"
)

func TestStateTransitions(t *testing.T) {
	r := reporter.NewMock(t)
	c, err := New(r, Dependencies{})
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}

	t1 := time.Date(2024, time.April, 2, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	c.SetTraffic(80, 150, 12)
	c.SetUnderAttack(80, true, t1)

	got, ok := c.Get(80)
	if !ok {
		t.Fatal("Get(80): port should exist")
	}
	expected := PortStatus{
		Port:             80,
		State:            PortUnderAttack,
		TotalObserved:    150,
		UniqueIPs:        12,
		LastTransitionAt: t1,
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("Get(80) (-got, +want):\n%s", diff)
	}

	// Administrative block takes precedence over detection.
	c.SetAdminBlocked(80, true, t2)
	got, _ = c.Get(80)
	if got.State != PortBlocked {
		t.Errorf("Get(80).State: got %s, expected %s", got.State, PortBlocked)
	}
	if !got.LastTransitionAt.Equal(t2) {
		t.Errorf("Get(80).LastTransitionAt: got %s, expected %s", got.LastTransitionAt, t2)
	}

	// Clearing the attack flag while blocked is not a transition.
	c.SetUnderAttack(80, false, t2.Add(time.Minute))
	got, _ = c.Get(80)
	if got.State != PortBlocked {
		t.Errorf("Get(80).State: got %s, expected %s", got.State, PortBlocked)
	}
	if !got.LastTransitionAt.Equal(t2) {
		t.Errorf("Get(80).LastTransitionAt: got %s, expected %s", got.LastTransitionAt, t2)
	}

	if _, ok := c.Get(443); ok {
		t.Error("Get(443): port should not exist")
	}
}

func TestConcurrentReadersWriters(t *testing.T) {
	r := reporter.NewMock(t)
	c, err := New(r, Dependencies{})
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}

	start := time.Date(2024, time.April, 2, 12, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.SetTraffic(443, uint64(i), i)
			c.SetUnderAttack(443, i%2 == 0, start.Add(time.Duration(i)*time.Second))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			st, ok := c.Get(443)
			if !ok {
				continue
			}
			// A reader never sees a state disagreeing with itself.
			if st.State != PortOpen && st.State != PortUnderAttack {
				t.Errorf("Get(443).State: unexpected %s", st.State)
				return
			}
			c.All()
		}
	}()
	wg.Wait()
}
