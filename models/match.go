package models

import "time"

// MatchStatus is the stored lifecycle state of a match.
type MatchStatus string

const (
	MatchStatusUpcoming MatchStatus = "upcoming"
	MatchStatusLive     MatchStatus = "live"
	MatchStatusFinished MatchStatus = "finished"
)

// BetStatus is the outcome classification of a settled prediction.
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusWon     BetStatus = "won"
	BetStatusLost    BetStatus = "lost"
	BetStatusVoid    BetStatus = "void"
	BetStatusPush    BetStatus = "push"
)

// Settled reports whether the bet status is a final outcome.
func (b BetStatus) Settled() bool {
	switch b {
	case BetStatusWon, BetStatusLost, BetStatusVoid, BetStatusPush:
		return true
	}
	return false
}

const (
	DefaultConfidence = 70
	DefaultForm       = "N/A"
)

// Match is a single published prediction for a football fixture.
type Match struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Slug string `json:"slug" gorm:"size:255;uniqueIndex;not null"`

	League    string    `json:"league" gorm:"size:100;not null;index"`
	HomeTeam  string    `json:"home_team" gorm:"size:100;not null"`
	AwayTeam  string    `json:"away_team" gorm:"size:100;not null"`
	HomeLogo  string    `json:"home_logo" gorm:"type:text"`
	AwayLogo  string    `json:"away_logo" gorm:"type:text"`
	MatchDate time.Time `json:"match_date" gorm:"not null;index"`

	// 📝 Prediction content
	Prediction string `json:"prediction" gorm:"size:200;not null"`
	Confidence int    `json:"confidence" gorm:"not null;default:70;check:confidence >= 1 AND confidence <= 100"`
	Analysis   string `json:"analysis" gorm:"type:text"`
	Odds       string `json:"odds" gorm:"size:50"`
	HomeForm   string `json:"home_form" gorm:"size:50;default:'N/A'"`
	AwayForm   string `json:"away_form" gorm:"size:50;default:'N/A'"`

	AffiliateLink string `json:"affiliate_link" gorm:"type:text"`

	// 🎛️ Lifecycle
	Status      MatchStatus `json:"status" gorm:"type:varchar(16);not null;default:'upcoming';index"`
	ResultScore *string     `json:"result_score" gorm:"type:varchar(16)"`
	BetStatus   BetStatus   `json:"bet_status" gorm:"type:varchar(16);not null;default:'pending'"`

	Views int64 `json:"views" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Calculated fields (not stored in DB)
	IsLive bool `json:"is_live" gorm:"-"`
}

// Title is the headline used for listings and notifications.
func (m Match) Title() string {
	return m.HomeTeam + " vs " + m.AwayTeam
}
