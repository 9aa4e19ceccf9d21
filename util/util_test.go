package util

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestValidSlug(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	for _, slug := range []string{"sc2024", "student-council", "a", "0-b-1"} {
		c.Check(ValidSlug(slug), qt.IsTrue, qt.Commentf("%q", slug))
	}
	for _, slug := range []string{"", "Student-Council", "double--dash", "-leading", "trailing-", "with space", "under_score"} {
		c.Check(ValidSlug(slug), qt.IsFalse, qt.Commentf("%q", slug))
	}
}

func TestGenerateBearerToken(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	a, b := GenerateBearerToken(), GenerateBearerToken()
	c.Assert(a, qt.HasLen, 64)
	c.Assert(a, qt.Not(qt.Equals), b)
}
