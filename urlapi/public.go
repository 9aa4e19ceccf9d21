package urlapi

import (
	"errors"
	"time"

	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/log"

	"github.com/bricesuazo/eboto-sub001/ballot"
	"github.com/bricesuazo/eboto-sub001/database"
	"github.com/bricesuazo/eboto-sub001/types"
	"github.com/bricesuazo/eboto-sub001/window"
)

func (u *URLAPI) enablePublicHandlers() error {
	if err := u.api.RegisterMethod(
		"/pub/elections/{electionId}",
		"GET",
		bearerstdapi.MethodAccessTypePublic,
		u.getElectionPublicHandler,
	); err != nil {
		return err
	}
	if err := u.api.RegisterMethod(
		"/pub/elections/{electionId}/tally",
		"GET",
		bearerstdapi.MethodAccessTypePublic,
		u.getElectionTallyHandler,
	); err != nil {
		return err
	}
	if err := u.api.RegisterMethod(
		"/pub/elections/{electionId}/result",
		"GET",
		bearerstdapi.MethodAccessTypePublic,
		u.getElectionResultHandler,
	); err != nil {
		return err
	}
	// Voting requires a registered voter bearer token.
	if err := u.api.RegisterMethod(
		"/pub/elections/{electionId}/vote",
		"POST",
		bearerstdapi.MethodAccessTypePrivate,
		u.castBallotHandler,
	); err != nil {
		return err
	}
	return nil
}

// GET https://server/v1/pub/elections/<electionId>
// getElectionPublicHandler gets public election info with its positions,
// candidates and partylists
func (u *URLAPI) getElectionPublicHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	if err = u.checkElectionVisibility(election, msg); err != nil {
		return err
	}
	positions, err := u.db.ListPositions(election.ID)
	if err != nil {
		return err
	}
	candidates, err := u.db.ListCandidates(election.ID)
	if err != nil {
		return err
	}
	partylists, err := u.db.ListPartylists(election.ID)
	if err != nil {
		return err
	}
	ongoing := window.IsOngoing(election, time.Now())
	resp := types.APIResponse{
		Election:   election,
		Positions:  positions,
		Candidates: candidates,
		Partylists: partylists,
		Ongoing:    &ongoing,
		Ok:         true,
	}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/elections/<electionId>/tally
// getElectionTallyHandler returns the realtime per-position tally. The
// ballot service itself anonymizes candidates while the election is
// ongoing and the realtime flag is off.
func (u *URLAPI) getElectionTallyHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	if err = u.checkElectionVisibility(election, msg); err != nil {
		return err
	}
	tally, err := u.ballots.Tally(election)
	if err != nil {
		return err
	}
	metricTallyRequests.Inc()
	resp := types.APIResponse{Tally: tally, Ok: true}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/elections/<electionId>/result
// getElectionResultHandler returns the immutable generated result snapshot
func (u *URLAPI) getElectionResultHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	if err = u.checkElectionVisibility(election, msg); err != nil {
		return err
	}
	result, err := u.db.GetElectionResult(election.ID)
	if err != nil {
		return err
	}
	resp := types.APIResponse{Result: result, Ok: true}
	return sendResponse(resp, ctx)
}

// POST https://server/v1/pub/elections/<electionId>/vote
// castBallotHandler resolves the voter from the bearer token and casts
// the submitted ballot
func (u *URLAPI) castBallotHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	electionID, err := getIntParam(ctx, "electionId")
	if err != nil {
		return err
	}
	if req.Ballot == nil {
		return errors.New("request carries no ballot")
	}
	voter, err := u.db.GetVoterByToken(msg.AuthToken)
	if err != nil {
		metricBallotsRejected.WithLabelValues("not_a_voter").Inc()
		return ballot.ErrNotAVoter
	}
	record, err := u.ballots.Cast(electionID, voter.ID, req.Ballot)
	if err != nil {
		metricBallotsRejected.WithLabelValues(rejectionReason(err)).Inc()
		return err
	}
	metricBallotsCast.Inc()
	log.Infof("ballot %s accepted for election %d", record.ID, electionID)
	resp := types.APIResponse{BallotID: record.ID.String(), Ok: true}
	return sendResponse(resp, ctx)
}

func rejectionReason(err error) string {
	var invalid *ballot.InvalidBallotError
	switch {
	case errors.Is(err, ballot.ErrWindowClosed):
		return "window_closed"
	case errors.Is(err, ballot.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, ballot.ErrNotAVoter):
		return "not_a_voter"
	case errors.As(err, &invalid):
		return "invalid_ballot"
	case errors.Is(err, database.ErrNotFound):
		return "not_found"
	}
	return "storage"
}
