package util

import (
	"regexp"

	dvoteutil "go.vocdoni.io/dvote/util"
)

var slugRegexp = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a lowercase url-safe slug.
func ValidSlug(s string) bool {
	return slugRegexp.MatchString(s)
}

// GenerateBearerToken returns a random hex token for voter authentication.
func GenerateBearerToken() string {
	return dvoteutil.RandomHex(32)
}
