package services

import (
	"math"
	"testing"

	"github.com/tekmak/kys-backend/internal/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluateLeakTestPassesWithinThreshold(t *testing.T) {
	drop, status := EvaluateLeakTest(10, 9.2, 1.0)
	if !almostEqual(drop, 0.8) {
		t.Fatalf("pressure drop: want=0.8 got=%v", drop)
	}
	if status != types.LeakTestStatusPassed {
		t.Fatalf("status: want=%q got=%q", types.LeakTestStatusPassed, status)
	}
}

func TestEvaluateLeakTestFailsBeyondThreshold(t *testing.T) {
	drop, status := EvaluateLeakTest(10, 9.2, 0.5)
	if !almostEqual(drop, 0.8) {
		t.Fatalf("pressure drop: want=0.8 got=%v", drop)
	}
	if status != types.LeakTestStatusFailed {
		t.Fatalf("status: want=%q got=%q", types.LeakTestStatusFailed, status)
	}
}

func TestEvaluateLeakTestBoundaryDropPasses(t *testing.T) {
	_, status := EvaluateLeakTest(10, 9, 1.0)
	if status != types.LeakTestStatusPassed {
		t.Fatalf("drop equal to threshold should pass, got %q", status)
	}
}

// A final pressure above the initial one produces a negative drop and
// a trivial pass. That is the recorded behavior of the workflow and
// reports depend on it, so the engine does not reject it.
func TestEvaluateLeakTestNegativeDropPassesTrivially(t *testing.T) {
	drop, status := EvaluateLeakTest(9, 10, 0.1)
	if drop != -1 {
		t.Fatalf("pressure drop: want=-1 got=%v", drop)
	}
	if status != types.LeakTestStatusPassed {
		t.Fatalf("negative drop should trivially pass, got %q", status)
	}
}

func TestRederivePressureNeedsBothReadings(t *testing.T) {
	final := 8.5
	max := 1.0
	drop, status := RederivePressure(nil, &final, &max)
	if drop != nil || status != nil {
		t.Fatalf("engine must not run with one reading missing: drop=%v status=%v", drop, status)
	}
}

func TestRederivePressureWithoutThresholdDerivesDropOnly(t *testing.T) {
	initial := 10.0
	final := 8.5
	drop, status := RederivePressure(&initial, &final, nil)
	if drop == nil || *drop != 1.5 {
		t.Fatalf("pressure drop: want=1.5 got=%v", drop)
	}
	if status != nil {
		t.Fatalf("status must stay untouched without a threshold, got %v", *status)
	}
}

func TestRederivePressureWithThresholdDerivesStatus(t *testing.T) {
	initial := 10.0
	final := 8.5
	max := 1.0
	drop, status := RederivePressure(&initial, &final, &max)
	if drop == nil || *drop != 1.5 {
		t.Fatalf("pressure drop: want=1.5 got=%v", drop)
	}
	if status == nil || *status != types.LeakTestStatusFailed {
		t.Fatalf("status: want=%q got=%v", types.LeakTestStatusFailed, status)
	}
}
