package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestElectionRoundsStartedIncrements(t *testing.T) {
	before := testutil.ToFloat64(ElectionRoundsStarted)
	ElectionRoundsStarted.Inc()
	if got := testutil.ToFloat64(ElectionRoundsStarted); got != before+1 {
		t.Fatalf("ElectionRoundsStarted = %v, want %v", got, before+1)
	}
}

func TestHeartbeatsSentVecLabels(t *testing.T) {
	HeartbeatsSent.WithLabelValues("server").Inc()
	HeartbeatsSent.WithLabelValues("client").Inc()
	if got := testutil.ToFloat64(HeartbeatsSent.WithLabelValues("server")); got < 1 {
		t.Fatalf("server heartbeats = %v, want >= 1", got)
	}
}

func TestDirectorySizeGaugeSettable(t *testing.T) {
	DirectorySize.Set(5)
	if got := testutil.ToFloat64(DirectorySize); got != 5 {
		t.Fatalf("DirectorySize = %v, want 5", got)
	}
}
