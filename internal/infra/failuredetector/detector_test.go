package failuredetector

import (
	"sync"
	"testing"
	"time"

	"github.com/ringmesh/ringchat/internal/domain"
)

func fastConfig() Config {
	return Config{Period: 5 * time.Millisecond, Timeout: 20 * time.Millisecond}
}

func TestResetPreventsTimeout(t *testing.T) {
	var mu sync.Mutex
	var failed []domain.NodeID

	d := New(fastConfig(), func(id domain.NodeID) {
		mu.Lock()
		failed = append(failed, id)
		mu.Unlock()
	}, nil)

	d.Monitor(KindServer, "B")

	stop := time.After(60 * time.Millisecond)
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-stop:
			break loop
		case <-ticker.C:
			d.Reset(KindServer, "B")
			d.CheckTimeouts()
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 0 {
		t.Fatalf("failures = %v, want none (timer kept being reset)", failed)
	}
}

func TestTimeoutFiresWithoutReset(t *testing.T) {
	var mu sync.Mutex
	var failed []domain.NodeID

	d := New(fastConfig(), func(id domain.NodeID) {
		mu.Lock()
		failed = append(failed, id)
		mu.Unlock()
	}, nil)

	d.Monitor(KindServer, "C")
	time.Sleep(30 * time.Millisecond)
	d.CheckTimeouts()

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 || failed[0] != "C" {
		t.Fatalf("failed = %v, want [C]", failed)
	}
}

func TestSuspendBlocksTimeouts(t *testing.T) {
	var mu sync.Mutex
	var failed []domain.NodeID

	d := New(fastConfig(), func(id domain.NodeID) {
		mu.Lock()
		failed = append(failed, id)
		mu.Unlock()
	}, nil)

	d.Monitor(KindServer, "C")
	d.Suspend(true)
	time.Sleep(30 * time.Millisecond)
	d.CheckTimeouts()

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 0 {
		t.Fatalf("failures while suspended = %v, want none", failed)
	}
}

func TestClientFailureCallback(t *testing.T) {
	var mu sync.Mutex
	var failed []domain.NodeID

	d := New(fastConfig(), nil, func(id domain.NodeID) {
		mu.Lock()
		failed = append(failed, id)
		mu.Unlock()
	})

	d.Monitor(KindClient, "client-1")
	time.Sleep(30 * time.Millisecond)
	d.CheckTimeouts()

	mu.Lock()
	defer mu.Unlock()
	if len(failed) != 1 || failed[0] != "client-1" {
		t.Fatalf("failed = %v, want [client-1]", failed)
	}
}

func TestForgetStopsMonitoring(t *testing.T) {
	d := New(fastConfig(), func(domain.NodeID) {
		t.Fatalf("callback should not fire after Forget")
	}, nil)

	d.Monitor(KindServer, "D")
	d.Forget(KindServer, "D")
	time.Sleep(30 * time.Millisecond)
	d.CheckTimeouts()
}
