package catalog

import "fmt"

// RetrievalError wraps any failure fetching catalog rows, category
// facets, or parent dependencies, including malformed results. It is
// surfaced to the user as a non-fatal notice; screens keep whatever
// partial data they have.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("retrieval failed: %s", e.Op)
	}
	return fmt.Sprintf("retrieval failed: %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// CreationError wraps a failed bulk line-item create. Staged data is
// preserved by the caller so the user can retry.
type CreationError struct {
	Err error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("line item creation failed: %v", e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }
