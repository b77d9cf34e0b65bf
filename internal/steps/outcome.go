package steps

import (
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/xkilldash9x/agenda-bdd/api/schemas"
)

// AssertionError is returned by a step whose expectation did not hold. It is
// the only error classified as a failure; every other error is an error of
// the system under test or its automation.
type AssertionError struct {
	Subject  string
	Expected interface{}
	Actual   interface{}
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("expected %s to be %v, got %v", e.Subject, e.Expected, e.Actual)
}

// Classify maps a step error to its outcome.
func Classify(err error) schemas.Outcome {
	var assertion *AssertionError
	switch {
	case err == nil:
		return schemas.OutcomePassed
	case errors.As(err, &assertion):
		return schemas.OutcomeFailed
	case errors.Is(err, godog.ErrPending):
		return schemas.OutcomePending
	case errors.Is(err, godog.ErrUndefined), errors.Is(err, ErrUndefinedStep):
		return schemas.OutcomeUndefined
	case errors.Is(err, godog.ErrSkip):
		return schemas.OutcomeSkipped
	default:
		return schemas.OutcomeErrored
	}
}

// ClassifyStatus maps a godog step result status and error to an outcome.
func ClassifyStatus(status godog.StepResultStatus, err error) schemas.Outcome {
	switch status {
	case godog.StepPassed:
		return schemas.OutcomePassed
	case godog.StepSkipped:
		return schemas.OutcomeSkipped
	case godog.StepUndefined:
		return schemas.OutcomeUndefined
	case godog.StepPending:
		return schemas.OutcomePending
	}
	if outcome := Classify(err); outcome != schemas.OutcomePassed {
		return outcome
	}
	return schemas.OutcomeErrored
}
