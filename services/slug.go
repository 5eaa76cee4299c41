package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const slugDateLayout = "2006-01-02"

// MatchSlug builds the URL key "home-vs-away-prediction-<disambiguator>".
// The same inputs always produce the same slug.
func MatchSlug(homeTeam, awayTeam, disambiguator string) string {
	return slug.Make(fmt.Sprintf("%s vs %s prediction %s", homeTeam, awayTeam, disambiguator))
}

func kickoffDisambiguator(kickoff time.Time) string {
	return kickoff.UTC().Format(slugDateLayout)
}

// shortSuffix returns 8 random hex characters used when the kickoff date alone collides.
func shortSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
