package ballot

import (
	"errors"
	"fmt"
)

// Cast rejections. These are expected, user-facing outcomes, not bugs:
// handlers report them to the caller without logging them as errors.
// Storage failures and not-found conditions propagate wrapped, with the
// database sentinel preserved for errors.Is.
var (
	// ErrWindowClosed rejects a cast attempted outside the voting window.
	ErrWindowClosed = errors.New("voting is not open for this election")
	// ErrAlreadyVoted rejects a second ballot for the same voter. Under
	// concurrent double-submit exactly one cast succeeds and the rest
	// fail with this error.
	ErrAlreadyVoted = errors.New("voter has already cast a ballot for this election")
	// ErrNotAVoter rejects a caller that is not registered for the election.
	ErrNotAVoter = errors.New("caller is not a registered voter of this election")
)

// InvalidBallotError rejects a ballot whose selections break a position
// cardinality or referential rule, naming the offending position.
type InvalidBallotError struct {
	PositionID int
	Reason     string
}

func (e *InvalidBallotError) Error() string {
	return fmt.Sprintf("invalid ballot for position %d: %s", e.PositionID, e.Reason)
}

func invalidBallot(positionID int, format string, args ...interface{}) error {
	return &InvalidBallotError{PositionID: positionID, Reason: fmt.Sprintf(format, args...)}
}
