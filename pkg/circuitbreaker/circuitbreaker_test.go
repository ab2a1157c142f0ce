package circuitbreaker

import (
	"testing"
	"time"
)

func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := New(Config{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed before threshold", cb.GetState())
	}

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open after threshold", cb.GetState())
	}
	if err := cb.Allow(); err != ErrOpen {
		t.Errorf("Allow() = %v, want ErrOpen", err)
	}
}

func TestHalfOpenProbeAndRecovery(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: 5 * time.Millisecond})

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatal("breaker should be open")
	}

	time.Sleep(10 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow() after open timeout = %v, want probe allowed", err)
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.GetState())
	}

	cb.RecordSuccess()
	cb.RecordSuccess()
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed after successes", cb.GetState())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Millisecond})

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("probe should be allowed, got %v", err)
	}

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open after half-open failure", cb.GetState())
	}
}

func TestStateChangeCallback(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Minute})

	var from, to State
	cb.OnStateChange(func(f, t State) { from, to = f, t })

	cb.RecordFailure()
	if from != StateClosed || to != StateOpen {
		t.Errorf("transition %v->%v, want closed->open", from, to)
	}
}
