package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/resumatch/internal/domain/model"
	"github.com/okian/resumatch/internal/domain/types"
	"github.com/okian/resumatch/pkg/metrics"
)

func validate(a model.Analysis) error { //nolint:gocritic // hugeParam: mirrors Store.Save
	switch {
	case a.ID == uuid.Nil:
		return fmt.Errorf("%w: analysis id is required", types.ErrInvalidInput)
	case strings.TrimSpace(a.JobID) == "":
		return fmt.Errorf("%w: job id is required", types.ErrInvalidInput)
	case !a.Verdict.Valid():
		return fmt.Errorf("%w: unknown verdict %q", types.ErrInvalidInput, a.Verdict)
	}
	return nil
}

func checkLimit(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordResultStoreLatency(op, float64(time.Since(start).Microseconds())/1000.0)
}
