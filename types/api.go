package types

import "fmt"

// APIRequest contains all of the possible request fields.
// Fields must be in alphabetical order
// Those fields with valid zero-values (such as bool) must be pointers
type APIRequest struct {
	Acronym            string            `json:"acronym,omitempty"`
	Ballot             *Ballot           `json:"ballot,omitempty"`
	Credential         *Credential       `json:"credential,omitempty"`
	Description        string            `json:"description,omitempty"`
	Email              string            `json:"email,omitempty"`
	EndDate            string            `json:"endDate,omitempty"`
	Fields             map[string]string `json:"fields,omitempty"`
	FirstName          string            `json:"firstName,omitempty"`
	LastName           string            `json:"lastName,omitempty"`
	LogoURI            string            `json:"logoUri,omitempty"`
	Max                *int              `json:"max,omitempty"`
	MiddleName         string            `json:"middleName,omitempty"`
	Min                *int              `json:"min,omitempty"`
	Name               string            `json:"name,omitempty"`
	Ordering           *int              `json:"ordering,omitempty"`
	PartylistID        int               `json:"partylistId,omitempty"`
	Platforms          []Platform        `json:"platforms,omitempty"`
	PositionID         int               `json:"positionId,omitempty"`
	Publicity          string            `json:"publicity,omitempty"`
	RealtimeCandidates *bool             `json:"realtimeCandidates,omitempty"`
	Slug               string            `json:"slug,omitempty"`
	StartDate          string            `json:"startDate,omitempty"`
	Voters             []APIVoter        `json:"voters,omitempty"`
	VotingHourEnd      *int              `json:"votingHourEnd,omitempty"`
	VotingHourStart    *int              `json:"votingHourStart,omitempty"`
}

// APIVoter is one voter entry in a bulk voter invite request.
type APIVoter struct {
	Email  string            `json:"email"`
	Fields map[string]string `json:"fields,omitempty"`
}

// APIResponse contains all of the possible response fields.
// Fields must be in alphabetical order
// Those fields with valid zero-values (such as bool) must be pointers
type APIResponse struct {
	BallotID   string                   `json:"ballotId,omitempty"`
	Candidates []Candidate              `json:"candidates,omitempty"`
	Election   *Election                `json:"election,omitempty"`
	Elections  []Election               `json:"elections,omitempty"`
	Message    string                   `json:"message,omitempty"`
	Ok         bool                     `json:"ok"`
	Ongoing    *bool                    `json:"ongoing,omitempty"`
	Partylists []Partylist              `json:"partylists,omitempty"`
	Positions  []Position               `json:"positions,omitempty"`
	Result     *GeneratedElectionResult `json:"result,omitempty"`
	Tally      []PositionTally          `json:"tally,omitempty"`
	Tokens     []TokenEmail             `json:"tokens,omitempty"`
	Voters     []Voter                  `json:"voters,omitempty"`
}

// SetError sets the APIResponse's Ok field to false, and Message to a string
// representation of v. Usually, v's type will be error or string.
func (r *APIResponse) SetError(v interface{}) {
	r.Ok = false
	r.Message = fmt.Sprintf("%s", v)
}

// TokenEmail pairs a voter's bearer token with its email, returned to
// the commissioner after a bulk invite.
type TokenEmail struct {
	Token string `json:"token"`
	Email string `json:"email"`
}
