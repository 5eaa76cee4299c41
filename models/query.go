package models

// MatchSort represents ordering options for match queries
type MatchSort string

const (
	SortKickoffAsc  MatchSort = "match_date_asc"
	SortKickoffDesc MatchSort = "match_date_desc"
)

// MatchFilter represents filtering options for match queries.
// Zero values mean "no restriction".
type MatchFilter struct {
	Status    MatchStatus `json:"status,omitempty"`
	BetStatus BetStatus   `json:"bet_status,omitempty"`
	League    string      `json:"league,omitempty"`
	Search    string      `json:"search,omitempty"`
	ExcludeID uint        `json:"exclude_id,omitempty"`
}

// MatchQuery is a filtered, ordered window over the match table.
type MatchQuery struct {
	Filter MatchFilter
	Sort   MatchSort
	Limit  int
	Offset int
}
