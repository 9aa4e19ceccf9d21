package pgsql

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseOperation(t *testing.T) {
	t.Parallel()
	c := qt.New(t)

	del, token := parseOperation("INSERT KEY=abc123")
	c.Assert(del, qt.IsFalse)
	c.Assert(token, qt.Equals, "abc123")

	del, token = parseOperation("DELETE KEY=abc123")
	c.Assert(del, qt.IsTrue)
	c.Assert(token, qt.Equals, "abc123")

	// Spacing variants around the separator.
	del, token = parseOperation("INSERT KEY = abc123")
	c.Assert(del, qt.IsFalse)
	c.Assert(token, qt.Equals, "abc123")

	// A payload without a key must not panic and yields no token.
	del, token = parseOperation("reload")
	c.Assert(del, qt.IsFalse)
	c.Assert(token, qt.Equals, "")

	del, token = parseOperation("DELETE")
	c.Assert(del, qt.IsTrue)
	c.Assert(token, qt.Equals, "")
}
