package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrDocumentNotFound = errors.New("document not found")

	// ErrRetrievalFailed marks transport-class failures inside the retrieval
	// pipeline (embedding, store, scorer).
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrDecisionFailed marks transport-class failures of graph workers. The
	// supervisor's own decision call never surfaces this kind; it degrades
	// to FINISH instead.
	ErrDecisionFailed = errors.New("decision failed")

	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
