package query

import (
	"errors"
	"fmt"

	"github.com/sqlchart/sqlchart/internal/gate"
)

var (
	ErrRejectedQuery    = errors.New("rejected query")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrExecution        = errors.New("execution error")
)

type RejectedQueryError struct {
	Verdict gate.Verdict
}

func (e *RejectedQueryError) Error() string {
	return fmt.Sprintf("rejected query: %s", e.Verdict.Message())
}

func (e *RejectedQueryError) Is(target error) bool {
	return target == ErrRejectedQuery
}

type StoreUnavailableError struct {
	Store string
	Err   error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store %q unavailable: %v", e.Store, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute query: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}
