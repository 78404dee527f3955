package api

import (
	"fmt"

	"github.com/shash06sp/Project-LogiSwift/internal/model"
)

func validateSolveRequest(req *model.SolveRequest) error {
	switch req.MatrixSource {
	case "", "inline", "haversine", "osrm":
	default:
		return fmt.Errorf("invalid matrixSource: %s (allowed: inline,haversine,osrm)", req.MatrixSource)
	}
	if req.MatrixSource == "inline" || (req.MatrixSource == "" && len(req.Matrix) > 0) {
		if len(req.Matrix) == 0 {
			return fmt.Errorf("matrix is required for inline matrixSource")
		}
		for i, row := range req.Matrix {
			if len(row) != len(req.Matrix) {
				return fmt.Errorf("matrix row %d has %d entries, want %d", i, len(row), len(req.Matrix))
			}
		}
	}
	if req.Capacity < 0 {
		return fmt.Errorf("capacity must be >= 0")
	}
	if req.SpeedKph < 0 {
		return fmt.Errorf("speedKph must be >= 0")
	}
	if req.TwoOptIterations < 0 {
		return fmt.Errorf("twoOptIterations must be >= 0")
	}
	return nil
}
