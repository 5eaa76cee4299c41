package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"tips-publish-system/models"
	"tips-publish-system/services"

	"github.com/gofiber/fiber/v2"
)

// matchForm is a submitted match plus the logo files that came with it.
// Logos are checked but not stored; problems holds the logo rejections.
type matchForm struct {
	input    services.MatchInput
	logos    []*logoFile
	problems []string
}

// parseMatchInput reads a match from a JSON body or a form post (urlencoded or
// multipart). Only keys present in the request are set. Uploaded logo files
// take precedence over logo URL fields.
func parseMatchInput(c *fiber.Ctx) (*matchForm, error) {
	var in services.MatchInput

	if isJSON(c) {
		if err := json.Unmarshal(c.Body(), &in); err != nil {
			return nil, models.NewValidationError("Invalid JSON body")
		}
		return &matchForm{input: in}, nil
	}

	form, _ := c.MultipartForm()
	args := c.Request().PostArgs()
	value := func(key string) *services.RawValue {
		if form != nil {
			if v, ok := form.Value[key]; ok && len(v) > 0 {
				return services.Raw(v[0])
			}
			return nil
		}
		if args.Has(key) {
			return services.Raw(string(args.Peek(key)))
		}
		return nil
	}

	in = services.MatchInput{
		League:        value("league"),
		HomeTeam:      value("home_team"),
		AwayTeam:      value("away_team"),
		HomeLogo:      value("home_logo"),
		AwayLogo:      value("away_logo"),
		MatchDate:     value("match_date"),
		HomeForm:      value("home_form"),
		AwayForm:      value("away_form"),
		Analysis:      value("analysis"),
		Prediction:    value("prediction"),
		Confidence:    value("confidence"),
		AffiliateLink: value("affiliate_link"),
		Odds:          value("odds"),
	}

	mf := &matchForm{input: in}
	if form == nil {
		return mf, nil
	}

	home, problem := checkLogo(c, "home_logo_file", "Home logo")
	if problem != "" {
		mf.problems = append(mf.problems, problem)
	}
	away, problem := checkLogo(c, "away_logo_file", "Away logo")
	if problem != "" {
		mf.problems = append(mf.problems, problem)
	}

	applyLogos(&mf.input, home, away)
	for _, l := range []*logoFile{home, away} {
		if l != nil {
			mf.logos = append(mf.logos, l)
		}
	}
	return mf, nil
}

// validate runs the field checks ahead of any logo upload and reports field
// and logo problems together.
func (mf *matchForm) validate(v *services.InputValidator, partial bool) error {
	problems := mf.problems
	if _, _, err := v.NormalizeMatch(mf.input, partial); err != nil {
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		problems = append(append([]string{}, verr.Problems...), problems...)
	}
	if len(problems) > 0 {
		return models.NewValidationError(problems...)
	}
	return nil
}

// resultInput is the record-result payload.
type resultInput struct {
	ResultScore string `json:"result_score" form:"result_score"`
	BetStatus   string `json:"bet_status" form:"bet_status"`
}

// bulkImportPayload extracts the raw entries text and its content type.
// Form posts carry the JSON text in the jsonData field.
func bulkImportPayload(c *fiber.Ctx) ([]byte, string) {
	contentType := strings.ToLower(string(c.Request().Header.ContentType()))
	if strings.HasPrefix(contentType, fiber.MIMEApplicationForm) || strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
		return []byte(c.FormValue("jsonData")), fiber.MIMEApplicationJSON
	}
	return c.Body(), contentType
}

func isJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(string(c.Request().Header.ContentType())), fiber.MIMEApplicationJSON)
}
