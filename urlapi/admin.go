package urlapi

import (
	"fmt"
	"time"

	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/log"

	"github.com/bricesuazo/eboto-sub001/types"
	"github.com/bricesuazo/eboto-sub001/util"
	"github.com/bricesuazo/eboto-sub001/window"
)

func (u *URLAPI) enableAdminHandlers() error {
	for _, method := range []struct {
		path    string
		verb    string
		handler bearerstdapi.BearerStdAPIhandler
	}{
		{"/priv/elections", "POST", u.createElectionHandler},
		{"/priv/elections", "GET", u.listElectionsHandler},
		{"/priv/elections/{electionId}", "GET", u.getElectionPrivateHandler},
		{"/priv/elections/{electionId}", "PUT", u.updateElectionHandler},
		{"/priv/elections/{electionId}", "DELETE", u.deleteElectionHandler},
		{"/priv/elections/{electionId}/positions", "POST", u.createPositionHandler},
		{"/priv/positions/{positionId}", "PUT", u.updatePositionHandler},
		{"/priv/positions/{positionId}", "DELETE", u.deletePositionHandler},
		{"/priv/elections/{electionId}/partylists", "POST", u.createPartylistHandler},
		{"/priv/partylists/{partylistId}", "PUT", u.updatePartylistHandler},
		{"/priv/partylists/{partylistId}", "DELETE", u.deletePartylistHandler},
		{"/priv/elections/{electionId}/candidates", "POST", u.createCandidateHandler},
		{"/priv/candidates/{candidateId}", "PUT", u.updateCandidateHandler},
		{"/priv/candidates/{candidateId}", "DELETE", u.deleteCandidateHandler},
		{"/priv/elections/{electionId}/voters", "POST", u.createVotersHandler},
		{"/priv/elections/{electionId}/voters", "GET", u.listVotersHandler},
		{"/priv/voters/{voterId}", "DELETE", u.deleteVoterHandler},
		{"/priv/elections/{electionId}/result", "GET", u.getElectionResultPrivateHandler},
	} {
		if err := u.api.RegisterMethod(method.path, method.verb,
			bearerstdapi.MethodAccessTypeAdmin, method.handler); err != nil {
			return err
		}
	}
	return nil
}

func windowChanged(stored, updated *types.Election) bool {
	return !updated.StartDate.Equal(stored.StartDate) ||
		!updated.EndDate.Equal(stored.EndDate) ||
		updated.VotingHourStart != stored.VotingHourStart ||
		updated.VotingHourEnd != stored.VotingHourEnd
}

// checkWindowMutable rejects a change to the temporal fields of an
// election whose voting window has already opened.
func checkWindowMutable(stored, updated *types.Election, now time.Time) error {
	if windowChanged(stored, updated) && window.HasOpened(stored, now) {
		return fmt.Errorf("the voting window of election %s has already opened, its dates are immutable", stored.Slug)
	}
	return nil
}

// parseDate accepts a date-only value or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse date %q: use 2006-01-02 or RFC3339", s)
	}
	return t, nil
}

// POST https://server/v1/priv/elections
// createElectionHandler creates a new election and arms its lifecycle callbacks
func (u *URLAPI) createElectionHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	var resp types.APIResponse
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	if !util.ValidSlug(req.Slug) {
		return fmt.Errorf("invalid election slug %q", req.Slug)
	}
	election := &types.Election{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Publicity:   types.Publicity(req.Publicity),
		LogoURI:     req.LogoURI,
		// Whole-day voting unless hours are provided.
		VotingHourStart: 0,
		VotingHourEnd:   24,
	}
	if election.Publicity == "" {
		election.Publicity = types.PublicityPrivate
	}
	if election.StartDate, err = parseDate(req.StartDate); err != nil {
		return err
	}
	if election.EndDate, err = parseDate(req.EndDate); err != nil {
		return err
	}
	if req.VotingHourStart != nil {
		election.VotingHourStart = *req.VotingHourStart
	}
	if req.VotingHourEnd != nil {
		election.VotingHourEnd = *req.VotingHourEnd
	}
	if req.RealtimeCandidates != nil {
		election.RealtimeCandidates = *req.RealtimeCandidates
	}
	if err = election.Validate(); err != nil {
		return err
	}
	if election.ID, err = u.db.CreateElection(election); err != nil {
		return err
	}
	u.scheduleElection(election)
	log.Infof("created election %s (%d)", election.Slug, election.ID)
	resp.Election = election
	resp.Ok = true
	return sendResponse(resp, ctx)
}

// GET https://server/v1/priv/elections
// listElectionsHandler lists all live elections
func (u *URLAPI) listElectionsHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	elections, err := u.db.ListElections()
	if err != nil {
		return err
	}
	resp := types.APIResponse{Elections: elections, Ok: true}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/priv/elections/<electionId>
// getElectionPrivateHandler fetches one election regardless of publicity
func (u *URLAPI) getElectionPrivateHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	resp := types.APIResponse{Election: election, Ok: true}
	return sendResponse(resp, ctx)
}

// PUT https://server/v1/priv/elections/<electionId>
// updateElectionHandler updates an election. The temporal fields are
// immutable once the voting window has opened.
func (u *URLAPI) updateElectionHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	updated := *election
	if req.Name != "" {
		updated.Name = req.Name
	}
	if req.Description != "" {
		updated.Description = req.Description
	}
	if req.Publicity != "" {
		updated.Publicity = types.Publicity(req.Publicity)
	}
	if req.LogoURI != "" {
		updated.LogoURI = req.LogoURI
	}
	if req.RealtimeCandidates != nil {
		updated.RealtimeCandidates = *req.RealtimeCandidates
	}
	if req.StartDate != "" {
		if updated.StartDate, err = parseDate(req.StartDate); err != nil {
			return err
		}
	}
	if req.EndDate != "" {
		if updated.EndDate, err = parseDate(req.EndDate); err != nil {
			return err
		}
	}
	if req.VotingHourStart != nil {
		updated.VotingHourStart = *req.VotingHourStart
	}
	if req.VotingHourEnd != nil {
		updated.VotingHourEnd = *req.VotingHourEnd
	}
	if err = checkWindowMutable(election, &updated, time.Now()); err != nil {
		return err
	}
	if err = updated.Validate(); err != nil {
		return err
	}
	if err = u.db.UpdateElection(&updated); err != nil {
		return err
	}
	if windowChanged(election, &updated) {
		u.scheduleElection(&updated)
	}
	resp := types.APIResponse{Election: &updated, Ok: true}
	return sendResponse(resp, ctx)
}

// DELETE https://server/v1/priv/elections/<electionId>
// deleteElectionHandler tombstones an election and cancels its pending callbacks
func (u *URLAPI) deleteElectionHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	electionID, err := getIntParam(ctx, "electionId")
	if err != nil {
		return err
	}
	if err = u.db.DeleteElection(electionID); err != nil {
		return err
	}
	u.sched.Cancel(electionID)
	log.Infof("deleted election %d", electionID)
	return sendResponse(types.APIResponse{Ok: true}, ctx)
}

// POST https://server/v1/priv/elections/<electionId>/positions
// createPositionHandler adds a position to an election
func (u *URLAPI) createPositionHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	position := &types.Position{
		ElectionID: election.ID,
		Name:       req.Name,
		Max:        1,
	}
	if req.Ordering != nil {
		position.Ordering = *req.Ordering
	}
	if req.Min != nil {
		position.Min = *req.Min
	}
	if req.Max != nil {
		position.Max = *req.Max
	}
	if err = position.Validate(); err != nil {
		return err
	}
	if position.ID, err = u.db.CreatePosition(position); err != nil {
		return err
	}
	resp := types.APIResponse{Positions: []types.Position{*position}, Ok: true}
	return sendResponse(resp, ctx)
}

// PUT https://server/v1/priv/positions/<positionId>
func (u *URLAPI) updatePositionHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	positionID, err := getIntParam(ctx, "positionId")
	if err != nil {
		return err
	}
	position, err := u.db.GetPosition(positionID)
	if err != nil {
		return err
	}
	if req.Name != "" {
		position.Name = req.Name
	}
	if req.Ordering != nil {
		position.Ordering = *req.Ordering
	}
	if req.Min != nil {
		position.Min = *req.Min
	}
	if req.Max != nil {
		position.Max = *req.Max
	}
	if err = position.Validate(); err != nil {
		return err
	}
	if err = u.db.UpdatePosition(position); err != nil {
		return err
	}
	resp := types.APIResponse{Positions: []types.Position{*position}, Ok: true}
	return sendResponse(resp, ctx)
}

// DELETE https://server/v1/priv/positions/<positionId>
func (u *URLAPI) deletePositionHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	positionID, err := getIntParam(ctx, "positionId")
	if err != nil {
		return err
	}
	if err = u.db.DeletePosition(positionID); err != nil {
		return err
	}
	return sendResponse(types.APIResponse{Ok: true}, ctx)
}

// POST https://server/v1/priv/elections/<electionId>/partylists
func (u *URLAPI) createPartylistHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	if req.Name == "" {
		return fmt.Errorf("partylist name cannot be empty")
	}
	partylist := &types.Partylist{
		ElectionID: election.ID,
		Name:       req.Name,
		Acronym:    req.Acronym,
		LogoURI:    req.LogoURI,
	}
	if partylist.ID, err = u.db.CreatePartylist(partylist); err != nil {
		return err
	}
	resp := types.APIResponse{Partylists: []types.Partylist{*partylist}, Ok: true}
	return sendResponse(resp, ctx)
}

// PUT https://server/v1/priv/partylists/<partylistId>
func (u *URLAPI) updatePartylistHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	partylistID, err := getIntParam(ctx, "partylistId")
	if err != nil {
		return err
	}
	partylist, err := u.db.GetPartylist(partylistID)
	if err != nil {
		return err
	}
	if req.Name != "" {
		partylist.Name = req.Name
	}
	if req.Acronym != "" {
		partylist.Acronym = req.Acronym
	}
	if req.LogoURI != "" {
		partylist.LogoURI = req.LogoURI
	}
	if err = u.db.UpdatePartylist(partylist); err != nil {
		return err
	}
	resp := types.APIResponse{Partylists: []types.Partylist{*partylist}, Ok: true}
	return sendResponse(resp, ctx)
}

// DELETE https://server/v1/priv/partylists/<partylistId>
func (u *URLAPI) deletePartylistHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	partylistID, err := getIntParam(ctx, "partylistId")
	if err != nil {
		return err
	}
	if err = u.db.DeletePartylist(partylistID); err != nil {
		return err
	}
	return sendResponse(types.APIResponse{Ok: true}, ctx)
}

// POST https://server/v1/priv/elections/<electionId>/candidates
func (u *URLAPI) createCandidateHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	if req.FirstName == "" || req.LastName == "" {
		return fmt.Errorf("candidate first and last name cannot be empty")
	}
	if !util.ValidSlug(req.Slug) {
		return fmt.Errorf("invalid candidate slug %q", req.Slug)
	}
	// The position must belong to the same election.
	position, err := u.db.GetPosition(req.PositionID)
	if err != nil {
		return fmt.Errorf("could not fetch position %d: %w", req.PositionID, err)
	}
	if position.ElectionID != election.ID {
		return fmt.Errorf("position %d does not belong to election %s", position.ID, election.Slug)
	}
	candidate := &types.Candidate{
		ElectionID:  election.ID,
		PositionID:  req.PositionID,
		PartylistID: req.PartylistID,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		Slug:        req.Slug,
		ImageURI:    req.LogoURI,
		Platforms:   req.Platforms,
	}
	if req.Credential != nil {
		candidate.Credential = types.CredentialCol(*req.Credential)
	}
	if candidate.ID, err = u.db.CreateCandidate(candidate); err != nil {
		return err
	}
	resp := types.APIResponse{Candidates: []types.Candidate{*candidate}, Ok: true}
	return sendResponse(resp, ctx)
}

// PUT https://server/v1/priv/candidates/<candidateId>
// updateCandidateHandler updates the mutable fields of a candidate; the
// name fields are identity and cannot change.
func (u *URLAPI) updateCandidateHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	candidateID, err := getIntParam(ctx, "candidateId")
	if err != nil {
		return err
	}
	candidate, err := u.db.GetCandidate(candidateID)
	if err != nil {
		return err
	}
	if req.Slug != "" {
		if !util.ValidSlug(req.Slug) {
			return fmt.Errorf("invalid candidate slug %q", req.Slug)
		}
		candidate.Slug = req.Slug
	}
	if req.PartylistID != 0 {
		candidate.PartylistID = req.PartylistID
	}
	if req.LogoURI != "" {
		candidate.ImageURI = req.LogoURI
	}
	if req.Credential != nil {
		candidate.Credential = types.CredentialCol(*req.Credential)
	}
	if req.Platforms != nil {
		candidate.Platforms = req.Platforms
	}
	if err = u.db.UpdateCandidate(candidate); err != nil {
		return err
	}
	resp := types.APIResponse{Candidates: []types.Candidate{*candidate}, Ok: true}
	return sendResponse(resp, ctx)
}

// DELETE https://server/v1/priv/candidates/<candidateId>
func (u *URLAPI) deleteCandidateHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	candidateID, err := getIntParam(ctx, "candidateId")
	if err != nil {
		return err
	}
	if err = u.db.DeleteCandidate(candidateID); err != nil {
		return err
	}
	return sendResponse(types.APIResponse{Ok: true}, ctx)
}

// POST https://server/v1/priv/elections/<electionId>/voters
// createVotersHandler invites a batch of voters, generating one bearer
// token each, and returns the token list to the commissioner
func (u *URLAPI) createVotersHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	var resp types.APIResponse
	if req, err = unmarshalRequest(msg); err != nil {
		return err
	}
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	if len(req.Voters) == 0 {
		return fmt.Errorf("no voters provided")
	}
	voters := make([]types.Voter, len(req.Voters))
	for i, v := range req.Voters {
		if v.Email == "" {
			return fmt.Errorf("voter email cannot be empty")
		}
		voters[i] = types.Voter{
			ElectionID: election.ID,
			Email:      v.Email,
			Token:      util.GenerateBearerToken(),
			Fields:     v.Fields,
		}
	}
	if err = u.db.CreateVoters(voters); err != nil {
		return err
	}
	for _, v := range voters {
		// The pgsql notifier syncs the tokens to any other instance.
		u.RegisterToken(v.Token, VOTER_MAX_REQUESTS)
		resp.Tokens = append(resp.Tokens, types.TokenEmail{Token: v.Token, Email: v.Email})
	}
	log.Infof("invited %d voters to election %s", len(voters), election.Slug)
	resp.Ok = true
	return sendResponse(resp, ctx)
}

// GET https://server/v1/priv/elections/<electionId>/voters
func (u *URLAPI) listVotersHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	voters, err := u.db.ListVoters(election.ID)
	if err != nil {
		return err
	}
	resp := types.APIResponse{Voters: voters, Ok: true}
	return sendResponse(resp, ctx)
}

// DELETE https://server/v1/priv/voters/<voterId>
func (u *URLAPI) deleteVoterHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	voterID, err := getIntParam(ctx, "voterId")
	if err != nil {
		return err
	}
	voter, err := u.db.GetVoter(voterID)
	if err != nil {
		return err
	}
	if err = u.db.DeleteVoter(voterID); err != nil {
		return err
	}
	u.RevokeToken(voter.Token)
	return sendResponse(types.APIResponse{Ok: true}, ctx)
}

// GET https://server/v1/priv/elections/<electionId>/result
// getElectionResultPrivateHandler fetches the generated result snapshot
func (u *URLAPI) getElectionResultPrivateHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	election, err := u.getElection(ctx)
	if err != nil {
		return err
	}
	result, err := u.db.GetElectionResult(election.ID)
	if err != nil {
		return err
	}
	resp := types.APIResponse{Result: result, Ok: true}
	return sendResponse(resp, ctx)
}
