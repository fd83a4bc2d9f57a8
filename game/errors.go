package game

import (
	"errors"
	"fmt"

	"github.com/wfunc/monopoly/event"
)

// ErrInvariant marks a logic defect. The engine stops on any error wrapping it.
var ErrInvariant = errors.New("invariant violation")

// Rejection is a recoverable refusal: the command had no effect and the
// same player is asked again.
type Rejection struct {
	// Tag is ERR for bad input and INFO for policy refusals.
	Tag    event.Tag
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func reject(format string, args ...any) error {
	return &Rejection{Tag: event.TagErr, Reason: fmt.Sprintf(format, args...)}
}

func refuse(format string, args ...any) error {
	return &Rejection{Tag: event.TagInfo, Reason: fmt.Sprintf(format, args...)}
}

func invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// IsRejection reports whether err is a recoverable rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}
