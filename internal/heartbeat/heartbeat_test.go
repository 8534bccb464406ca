package heartbeat_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stompbroker/internal/heartbeat"
)

func TestSupervisor_SendTimerWritesBeacon(t *testing.T) {
	var sends int32
	sup := heartbeat.New(heartbeat.Config{
		SendInterval: 10 * time.Millisecond,
		Send: func() error {
			atomic.AddInt32(&sends, 1)
			return nil
		},
		LastRx: time.Now,
	})
	sup.Start()
	defer sup.Stop()

	time.Sleep(50 * time.Millisecond)

	if atomic.LoadInt32(&sends) < 2 {
		t.Errorf("expected at least 2 beacons, got %d", sends)
	}
}

func TestSupervisor_RecvTimerDetectsTimeout(t *testing.T) {
	var lastRx time.Time
	var mu sync.Mutex
	mu.Lock()
	lastRx = time.Now().Add(-time.Hour) // already stale
	mu.Unlock()

	timedOut := make(chan struct{})
	sup := heartbeat.New(heartbeat.Config{
		RecvInterval: 10 * time.Millisecond,
		ErrorMargin:  5 * time.Millisecond,
		LastRx: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return lastRx
		},
		OnTimeout: func() {
			select {
			case timedOut <- struct{}{}:
			default:
			}
		},
	})
	sup.Start()
	defer sup.Stop()

	select {
	case <-timedOut:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected OnTimeout to fire")
	}
}

func TestSupervisor_RecvTimerNoTimeoutWhenFresh(t *testing.T) {
	sup := heartbeat.New(heartbeat.Config{
		RecvInterval: 10 * time.Millisecond,
		ErrorMargin:  1000 * time.Millisecond,
		LastRx:       time.Now,
		OnTimeout: func() {
			t.Error("did not expect a timeout")
		},
	})
	sup.Start()
	defer sup.Stop()

	time.Sleep(50 * time.Millisecond)
}

func TestSupervisor_StopIsIdempotent(t *testing.T) {
	sup := heartbeat.New(heartbeat.Config{})
	sup.Start()
	sup.Stop()
	sup.Stop()
}

func TestSupervisor_NoIntervalsNeverStarts(t *testing.T) {
	sup := heartbeat.New(heartbeat.Config{
		Send:   func() error { t.Fatal("should never be called"); return nil },
		LastRx: time.Now,
	})
	sup.Start()
	defer sup.Stop()
	time.Sleep(10 * time.Millisecond)
}
