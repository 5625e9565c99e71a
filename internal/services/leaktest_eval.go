package services

import (
	"github.com/tekmak/kys-backend/internal/types"
)

// EvaluateLeakTest classifies one pressure test. The drop is always
// initial minus final; the test passes when the drop does not exceed
// the allowed maximum. A final pressure above the initial one yields a
// negative drop which trivially passes. That mirrors how the quality
// department has always recorded these tests, so it is kept rather
// than rejected here.
func EvaluateLeakTest(initialPressure, finalPressure, maxAllowedPressureDrop float64) (float64, string) {
	pressureDrop := initialPressure - finalPressure
	if pressureDrop <= maxAllowedPressureDrop {
		return pressureDrop, types.LeakTestStatusPassed
	}
	return pressureDrop, types.LeakTestStatusFailed
}

// RederivePressure applies the partial-update rule: the engine only
// runs when both pressure readings are known after merging the update
// onto the stored record. With one reading missing the prior derived
// fields stay untouched. Status additionally needs the threshold.
func RederivePressure(initialPressure, finalPressure, maxAllowedPressureDrop *float64) (*float64, *string) {
	if initialPressure == nil || finalPressure == nil {
		return nil, nil
	}
	drop := *initialPressure - *finalPressure
	if maxAllowedPressureDrop == nil {
		return &drop, nil
	}
	_, status := EvaluateLeakTest(*initialPressure, *finalPressure, *maxAllowedPressureDrop)
	return &drop, &status
}
