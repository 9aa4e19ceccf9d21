// Package notifications defines the outbound notification boundary of
// the core. Delivery is fire-and-forget: a failed notification is
// logged and dropped, it never affects the operation that produced it.
package notifications

import (
	"go.vocdoni.io/dvote/log"

	"github.com/bricesuazo/eboto-sub001/types"
)

type Notifier interface {
	// BallotConfirmed is sent to a voter after their ballot commits.
	BallotConfirmed(election *types.Election, voter *types.Voter) error
	// ElectionStarted is sent to every recipient when the voting
	// window first opens.
	ElectionStarted(election *types.Election, recipients []string) error
	// ElectionEnded is sent to every recipient when the voting window
	// closes and the final result has been generated.
	ElectionEnded(election *types.Election, recipients []string) error
}

// LogNotifier writes notifications to the log instead of delivering
// them. It is the default when no mail transport is configured, and the
// implementation tests run against.
type LogNotifier struct{}

func (n *LogNotifier) BallotConfirmed(election *types.Election, voter *types.Voter) error {
	log.Infof("notify ballot confirmed: election %s voter %s", election.Slug, voter.Email)
	return nil
}

func (n *LogNotifier) ElectionStarted(election *types.Election, recipients []string) error {
	log.Infof("notify election started: election %s to %d recipients", election.Slug, len(recipients))
	return nil
}

func (n *LogNotifier) ElectionEnded(election *types.Election, recipients []string) error {
	log.Infof("notify election ended: election %s to %d recipients", election.Slug, len(recipients))
	return nil
}
