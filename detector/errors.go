package detector

import (
	"fmt"
	"strings"
)

// DataOrderingError reports a trade sequence that is not sorted by timestamp.
// Fatal for that pool's scan only; other pools keep scanning.
type DataOrderingError struct {
	Pool  string
	Index int // index of the first out-of-order trade
}

func (e *DataOrderingError) Error() string {
	return fmt.Sprintf("trade sequence for pool %q not sorted by timestamp (first violation at index %d)", e.Pool, e.Index)
}

// ConfigurationError reports an invalid tunable. Rejected at configuration
// time, before any scanning begins.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// DegenerateClusterError reports a cluster that violates the scanner's
// contract (defensive check in the classifier). The cluster is skipped and
// classification of the rest of the batch continues.
type DegenerateClusterError struct {
	Reason string
}

func (e *DegenerateClusterError) Error() string {
	return fmt.Sprintf("degenerate cluster: %s", e.Reason)
}

// BatchErrors aggregates per-unit errors of one batch. Errors local to one
// pool or one cluster never abort the rest of the batch; the summary is
// surfaced at the end.
type BatchErrors struct {
	Errs []error
}

func (b *BatchErrors) Add(err error) {
	if err != nil {
		b.Errs = append(b.Errs, err)
	}
}

func (b *BatchErrors) Empty() bool {
	return b == nil || len(b.Errs) == 0
}

func (b *BatchErrors) Error() string {
	if b.Empty() {
		return "no batch errors"
	}
	msgs := make([]string, 0, len(b.Errs))
	for _, err := range b.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d unit(s) failed: %s", len(b.Errs), strings.Join(msgs, "; "))
}

// Unwrap exposes the per-unit errors to errors.Is/As.
func (b *BatchErrors) Unwrap() []error {
	return b.Errs
}
