package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tips-publish-system/models"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// RawValue is an externally supplied scalar kept in its text form, whatever
// JSON or YAML type it arrived as.
type RawValue string

func (v *RawValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = RawValue(s)
		return nil
	}
	*v = RawValue(strings.TrimSpace(string(b)))
	return nil
}

func (v *RawValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*v = RawValue(node.Value)
	return nil
}

// Raw wraps s as a supplied value.
func Raw(s string) *RawValue {
	v := RawValue(s)
	return &v
}

// MatchInput is a match as submitted by an admin form, the JSON API or a bulk
// import entry. Nil fields were not supplied.
type MatchInput struct {
	League        *RawValue `json:"league" yaml:"league"`
	HomeTeam      *RawValue `json:"home_team" yaml:"home_team"`
	AwayTeam      *RawValue `json:"away_team" yaml:"away_team"`
	HomeLogo      *RawValue `json:"home_logo" yaml:"home_logo"`
	AwayLogo      *RawValue `json:"away_logo" yaml:"away_logo"`
	MatchDate     *RawValue `json:"match_date" yaml:"match_date"`
	HomeForm      *RawValue `json:"home_form" yaml:"home_form"`
	AwayForm      *RawValue `json:"away_form" yaml:"away_form"`
	Analysis      *RawValue `json:"analysis" yaml:"analysis"`
	Prediction    *RawValue `json:"prediction" yaml:"prediction"`
	Confidence    *RawValue `json:"confidence" yaml:"confidence"`
	AffiliateLink *RawValue `json:"affiliate_link" yaml:"affiliate_link"`
	Odds          *RawValue `json:"odds" yaml:"odds"`
}

func (v *RawValue) text() string {
	if v == nil {
		return ""
	}
	return string(*v)
}

// matchFields is the sanitized view of a MatchInput checked against struct tags.
type matchFields struct {
	League        string `validate:"required,max=100"`
	HomeTeam      string `validate:"required,max=100"`
	AwayTeam      string `validate:"required,max=100"`
	HomeLogo      string `validate:"omitempty,logourl"`
	AwayLogo      string `validate:"omitempty,logourl"`
	HomeForm      string `validate:"max=50"`
	AwayForm      string `validate:"max=50"`
	Analysis      string `validate:"max=5000"`
	Prediction    string `validate:"required,max=200"`
	Confidence    int    `validate:"min=1,max=100"`
	AffiliateLink string `validate:"omitempty,weburl"`
	Odds          string `validate:"max=50"`
}

type resultFields struct {
	ResultScore string `validate:"required,score"`
	BetStatus   string `validate:"required,oneof=won lost void push"`
}

// LoginInput is a back-office sign-in attempt.
type LoginInput struct {
	Username string `json:"username" form:"username" validate:"required,max=50"`
	Password string `json:"password" form:"password" validate:"required,max=100"`
}

var fieldMessages = map[string]map[string]string{
	"League":        {"required": "League is required", "max": "League name too long"},
	"HomeTeam":      {"required": "Home team is required", "max": "Home team name too long"},
	"AwayTeam":      {"required": "Away team is required", "max": "Away team name too long"},
	"HomeLogo":      {"logourl": "Invalid home logo URL"},
	"AwayLogo":      {"logourl": "Invalid away logo URL"},
	"HomeForm":      {"max": "Home form too long"},
	"AwayForm":      {"max": "Away form too long"},
	"Analysis":      {"max": "Analysis too long"},
	"Prediction":    {"required": "Prediction is required", "max": "Prediction too long"},
	"Confidence":    {"min": "Confidence must be between 1 and 100", "max": "Confidence must be between 1 and 100"},
	"AffiliateLink": {"weburl": "Invalid affiliate link URL"},
	"Odds":          {"max": "Odds too long"},
	"ResultScore":   {"required": "Result score is required", "score": "Score must be in format X-X"},
	"BetStatus":     {"required": "Bet status is required", "oneof": "Invalid bet status"},
	"Username":      {"required": "Username is required", "max": "Username too long"},
	"Password":      {"required": "Password is required", "max": "Password too long"},
}

// matchColumns maps matchFields names to table columns.
var matchColumns = map[string]string{
	"League":        "league",
	"HomeTeam":      "home_team",
	"AwayTeam":      "away_team",
	"HomeLogo":      "home_logo",
	"AwayLogo":      "away_logo",
	"HomeForm":      "home_form",
	"AwayForm":      "away_form",
	"Analysis":      "analysis",
	"Prediction":    "prediction",
	"Confidence":    "confidence",
	"AffiliateLink": "affiliate_link",
	"Odds":          "odds",
}

var (
	scorePattern = regexp.MustCompile(`^\d+-\d+$`)
	slugPattern  = regexp.MustCompile(`^[a-z0-9-]+$`)
)

var matchDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// InputValidator sanitizes free text and validates structured fields,
// collecting every problem instead of stopping at the first.
type InputValidator struct {
	policy   *bluemonday.Policy
	validate *validator.Validate
}

func NewInputValidator() *InputValidator {
	v := validator.New()
	_ = v.RegisterValidation("score", func(fl validator.FieldLevel) bool {
		return scorePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
		return isWebURL(fl.Field().String())
	})
	_ = v.RegisterValidation("logourl", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return isWebURL(s) || strings.HasPrefix(s, "/uploads/")
	})

	return &InputValidator{
		policy:   bluemonday.StrictPolicy(),
		validate: v,
	}
}

// Sanitize strips every tag and attribute and returns trimmed, NFC-normalized text.
func (iv *InputValidator) Sanitize(s string) string {
	out := s
	settled := false
	for i := 0; i < 5 && !settled; i++ {
		next := html.UnescapeString(iv.policy.Sanitize(out))
		settled = next == out
		out = next
	}
	// Still unwrapping encoded markup after five rounds: keep it escaped.
	if !settled {
		out = iv.policy.Sanitize(out)
	}
	return norm.NFC.String(strings.TrimSpace(out))
}

// ValidSlug reports whether s has the shape of a generated match slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// NormalizeMatch sanitizes and validates in. With partial=false every field is
// considered and omitted optional fields get their defaults; with partial=true
// only supplied fields are checked. It returns the normalized values and the
// table columns that were supplied.
func (iv *InputValidator) NormalizeMatch(in MatchInput, partial bool) (*models.Match, []string, error) {
	var (
		fields   matchFields
		touched  []string
		problems []string
	)

	text := func(name string, raw *RawValue, dst *string, fallback string) {
		if raw == nil && partial {
			return
		}
		touched = append(touched, name)
		*dst = iv.Sanitize(raw.text())
		if *dst == "" {
			*dst = fallback
		}
	}

	text("League", in.League, &fields.League, "")
	text("HomeTeam", in.HomeTeam, &fields.HomeTeam, "")
	text("AwayTeam", in.AwayTeam, &fields.AwayTeam, "")
	text("HomeLogo", in.HomeLogo, &fields.HomeLogo, "")
	text("AwayLogo", in.AwayLogo, &fields.AwayLogo, "")
	text("HomeForm", in.HomeForm, &fields.HomeForm, models.DefaultForm)
	text("AwayForm", in.AwayForm, &fields.AwayForm, models.DefaultForm)
	text("Analysis", in.Analysis, &fields.Analysis, "")
	text("Prediction", in.Prediction, &fields.Prediction, "")
	text("AffiliateLink", in.AffiliateLink, &fields.AffiliateLink, "")
	text("Odds", in.Odds, &fields.Odds, "")

	if in.Confidence != nil || !partial {
		raw := strings.TrimSpace(in.Confidence.text())
		if raw == "" {
			fields.Confidence = models.DefaultConfidence
			touched = append(touched, "Confidence")
		} else if n, err := strconv.Atoi(raw); err != nil {
			problems = append(problems, fieldMessages["Confidence"]["min"])
		} else {
			fields.Confidence = n
			touched = append(touched, "Confidence")
		}
	}

	if len(touched) > 0 {
		if err := iv.validate.StructPartial(fields, touched...); err != nil {
			problems = append(iv.describe(err), problems...)
		}
	}

	var matchDate time.Time
	dateTouched := in.MatchDate != nil || !partial
	if dateTouched {
		raw := strings.TrimSpace(in.MatchDate.text())
		switch d, err := parseMatchDate(raw); {
		case raw == "":
			problems = append(problems, "Match date is required")
		case err != nil:
			problems = append(problems, "Invalid date format")
		default:
			matchDate = d
		}
	}

	if len(problems) > 0 {
		return nil, nil, models.NewValidationError(problems...)
	}

	match := &models.Match{
		League:        fields.League,
		HomeTeam:      fields.HomeTeam,
		AwayTeam:      fields.AwayTeam,
		HomeLogo:      fields.HomeLogo,
		AwayLogo:      fields.AwayLogo,
		MatchDate:     matchDate,
		HomeForm:      fields.HomeForm,
		AwayForm:      fields.AwayForm,
		Analysis:      fields.Analysis,
		Prediction:    fields.Prediction,
		Confidence:    fields.Confidence,
		AffiliateLink: fields.AffiliateLink,
		Odds:          fields.Odds,
	}

	columns := make([]string, 0, len(touched)+1)
	for _, name := range touched {
		columns = append(columns, matchColumns[name])
	}
	if dateTouched {
		columns = append(columns, "match_date")
	}
	return match, columns, nil
}

// ValidateResult checks a score and bet outcome for the record-result transition.
func (iv *InputValidator) ValidateResult(score, betStatus string) (string, models.BetStatus, error) {
	fields := resultFields{
		ResultScore: iv.Sanitize(score),
		BetStatus:   strings.ToLower(strings.TrimSpace(betStatus)),
	}
	if err := iv.validate.Struct(fields); err != nil {
		return "", "", models.NewValidationError(iv.describe(err)...)
	}
	return fields.ResultScore, models.BetStatus(fields.BetStatus), nil
}

// ValidateLogin checks the shape of a sign-in attempt.
func (iv *InputValidator) ValidateLogin(in LoginInput) error {
	in.Username = strings.TrimSpace(in.Username)
	if err := iv.validate.Struct(in); err != nil {
		return models.NewValidationError(iv.describe(err)...)
	}
	return nil
}

func (iv *InputValidator) describe(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := fieldMessages[fe.Field()][fe.Tag()]; ok {
			out = append(out, msg)
			continue
		}
		out = append(out, fmt.Sprintf("%s is invalid", fe.Field()))
	}
	return out
}

func parseMatchDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range matchDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func isWebURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
