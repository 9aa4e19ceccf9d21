package types

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func validElection() *Election {
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	return &Election{
		Slug:            "student-council-2024",
		Name:            "Student Council 2024",
		StartDate:       day,
		EndDate:         day.AddDate(0, 0, 2),
		VotingHourStart: 7,
		VotingHourEnd:   19,
		Publicity:       PublicityPrivate,
	}
}

func TestElectionValidate(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	c.Assert(validElection().Validate(), qt.IsNil)

	wholeDay := validElection()
	wholeDay.VotingHourStart = 0
	wholeDay.VotingHourEnd = 24
	c.Assert(wholeDay.Validate(), qt.IsNil)

	for name, mutate := range map[string]func(*Election){
		"empty slug":          func(e *Election) { e.Slug = "" },
		"empty name":          func(e *Election) { e.Name = "" },
		"start after end":     func(e *Election) { e.EndDate = e.StartDate.AddDate(0, 0, -1) },
		"hour end over 24":    func(e *Election) { e.VotingHourEnd = 25 },
		"negative hour start": func(e *Election) { e.VotingHourStart = -1 },
		"inverted hours":      func(e *Election) { e.VotingHourStart = 19; e.VotingHourEnd = 7 },
		"equal hours":         func(e *Election) { e.VotingHourStart = 9; e.VotingHourEnd = 9 },
		"bad publicity":       func(e *Election) { e.Publicity = "SECRET" },
	} {
		e := validElection()
		mutate(e)
		c.Assert(e.Validate(), qt.IsNotNil, qt.Commentf(name))
	}
}

func TestPositionValidate(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	c.Assert((&Position{Name: "President", Min: 0, Max: 1}).Validate(), qt.IsNil)
	c.Assert((&Position{Name: "Senator", Min: 1, Max: 12}).Validate(), qt.IsNil)
	c.Assert((&Position{Min: 0, Max: 1}).Validate(), qt.IsNotNil)
	c.Assert((&Position{Name: "President", Min: -1, Max: 1}).Validate(), qt.IsNotNil)
	c.Assert((&Position{Name: "President", Min: 2, Max: 1}).Validate(), qt.IsNotNil)
	c.Assert((&Position{Name: "President", Min: 0, Max: 0}).Validate(), qt.IsNotNil)
}

func TestCandidateFullName(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	c.Assert((&Candidate{FirstName: "Juan", LastName: "dela Cruz"}).FullName(),
		qt.Equals, "Juan dela Cruz")
	c.Assert((&Candidate{FirstName: "Maria", MiddleName: "Santos", LastName: "Reyes"}).FullName(),
		qt.Equals, "Maria Santos Reyes")
}
