package pipeline

import (
	"errors"
	"fmt"

	"github.com/divguptagit/Sports-AI/internal/models"
)

// ErrStoreUnavailable marks a store failure that survived retries; it
// aborts the run.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrPredictorUnavailable marks a predictor failure that survived
// retries; it aborts the run.
var ErrPredictorUnavailable = errors.New("predictor unavailable")

// ErrAlreadyEvaluated is the idempotency guard: evaluating a prediction
// that already carries an evaluation timestamp is a no-op, not a fault.
var ErrAlreadyEvaluated = errors.New("prediction already evaluated")

// ErrNoActiveModel is returned when the registry holds no ACTIVE
// descriptor for a requested model type. The affected type is skipped;
// other types proceed.
type ErrNoActiveModel struct {
	Type models.ModelType
}

func (e *ErrNoActiveModel) Error() string {
	return fmt.Sprintf("no active model for type %s", e.Type)
}
