package grouping

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports a structurally invalid model response: a missing
// clusters key, a missing cluster field, or an out-of-range metric.
// It triggers exactly one same-batch retry.
type SchemaError struct {
	Detail string
}

func (e *SchemaError) Error() string {
	return "cluster schema error: " + e.Detail
}

// ValidationError reports that a claimed cluster set does not partition
// the batch's id universe. It carries every violation found, not just
// the first, and triggers exactly one same-batch retry.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cluster validation failed:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

// retryable reports whether a batch error is worth one more model call.
// Transport errors are terminal for the batch.
func retryable(err error) bool {
	var schemaErr *SchemaError
	var validationErr *ValidationError
	return errors.As(err, &schemaErr) || errors.As(err, &validationErr)
}
