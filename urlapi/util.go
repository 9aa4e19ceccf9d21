package urlapi

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/log"

	"github.com/bricesuazo/eboto-sub001/types"
)

func unmarshalRequest(msg *bearerstdapi.BearerStandardAPIdata) (req types.APIRequest, err error) {
	if len(msg.Data) == 0 {
		return req, nil
	}
	if err = json.Unmarshal(msg.Data, &req); err != nil {
		return req, fmt.Errorf("could not decode request body %s: %v", string(msg.Data), err)
	}
	return req, nil
}

func sendResponse(response interface{}, ctx *httprouter.HTTPContext) error {
	data, err := json.Marshal(response)
	if err != nil {
		log.Errorf("error marshaling JSON: %v", err)
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	if err = ctx.Send(data, bearerstdapi.HTTPstatusCodeOK); err != nil {
		log.Error(err)
		return err
	}
	return nil
}

func getIntParam(ctx *httprouter.HTTPContext, name string) (int, error) {
	id := ctx.URLParam(name)
	intID, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("could not parse urlParam %s: %v", name, err)
	}
	return intID, nil
}

// getElection fetches the election referenced by the electionId url
// parameter, rejecting soft-deleted ones.
func (u *URLAPI) getElection(ctx *httprouter.HTTPContext) (*types.Election, error) {
	electionID, err := getIntParam(ctx, "electionId")
	if err != nil {
		return nil, err
	}
	return u.db.GetElection(electionID)
}

// checkElectionVisibility enforces the election's publicity level for
// read access: PUBLIC is open, VOTER and PRIVATE require the bearer
// token of a voter registered for this election.
func (u *URLAPI) checkElectionVisibility(election *types.Election,
	msg *bearerstdapi.BearerStandardAPIdata) error {
	if election.Publicity == types.PublicityPublic {
		return nil
	}
	if msg.AuthToken == "" {
		return fmt.Errorf("election %s is not public", election.Slug)
	}
	voter, err := u.db.GetVoterByToken(msg.AuthToken)
	if err != nil || voter.ElectionID != election.ID {
		return fmt.Errorf("election %s is not public", election.Slug)
	}
	return nil
}
