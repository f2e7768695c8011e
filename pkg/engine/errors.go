package engine

import (
	"errors"
	"fmt"
)

// ErrRejected is the sentinel for every refused mutation, for errors.Is().
// A rejection is a policy decision surfaced to the user, not a failure of the
// engine; no partial mutation ever accompanies one.
var ErrRejected = errors.New("mutation rejected")

// Reason is a machine-readable rejection code
type Reason string

const (
	ReasonSelfLoop      Reason = "self_loop"
	ReasonDuplicateEdge Reason = "duplicate_edge"
	ReasonWouldCycle    Reason = "would_cycle"
	ReasonUnknownNode   Reason = "unknown_node"
	ReasonDuplicateNode Reason = "duplicate_node"
	ReasonUnknownEdge   Reason = "unknown_edge"
	ReasonInvalidKind   Reason = "invalid_kind"
	ReasonInvalidID     Reason = "invalid_id"
)

// Rejection carries the reason a mutation was refused.
// Wraps ErrRejected for errors.Is() compatibility.
type Rejection struct {
	Reason Reason
	Msg    string
}

func (r *Rejection) Error() string {
	if r.Msg == "" {
		return fmt.Sprintf("%s: %s", ErrRejected.Error(), r.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrRejected.Error(), r.Reason, r.Msg)
}

func (r *Rejection) Unwrap() error { return ErrRejected }

func reject(reason Reason, format string, args ...interface{}) error {
	return &Rejection{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from an error, if it carries one
func ReasonOf(err error) (Reason, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}
