// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package timeutil

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

func TestRealClock_NewTicker(t *testing.T) {
	clock := RealClock{}
	ticker := clock.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Error("ticker did not fire")
	}
}

func TestMockClock_Advance(t *testing.T) {
	clock := NewMockClock(epoch)
	ticker := clock.NewTicker(200 * time.Millisecond)

	clock.Advance(100 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired early")
	default:
	}

	clock.Advance(100 * time.Millisecond)
	select {
	case got := <-ticker.C():
		if want := epoch.Add(200 * time.Millisecond); !got.Equal(want) {
			t.Errorf("tick time = %v, want %v", got, want)
		}
	default:
		t.Fatal("ticker did not fire")
	}

	if got := clock.Now(); !got.Equal(epoch.Add(200 * time.Millisecond)) {
		t.Errorf("Now() = %v", got)
	}
}

func TestMockClock_StoppedTickerDoesNotFire(t *testing.T) {
	clock := NewMockClock(epoch)
	ticker := clock.NewTicker(time.Second)

	if n := clock.ActiveTickers(); n != 1 {
		t.Fatalf("ActiveTickers() = %d, want 1", n)
	}

	ticker.Stop()
	clock.Advance(5 * time.Second)

	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
	if n := clock.ActiveTickers(); n != 0 {
		t.Errorf("ActiveTickers() = %d, want 0", n)
	}
}

func TestMockClock_DropsUnreadTicks(t *testing.T) {
	clock := NewMockClock(epoch)
	ticker := clock.NewTicker(time.Second)

	clock.Advance(time.Second)
	clock.Advance(time.Second)

	<-ticker.C()
	select {
	case <-ticker.C():
		t.Fatal("expected the second tick to be dropped")
	default:
	}
}
