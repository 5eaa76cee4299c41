package services

import (
	"bytes"
	"encoding/json"
	"strings"

	"tips-publish-system/models"

	"gopkg.in/yaml.v3"
)

const (
	invalidBulkPayload = "Invalid JSON format. Expected an array of matches."
	invalidBulkEntry   = "Invalid match entry"
)

// BulkEntry is one element of a bulk import payload. Err is set when the
// element could not be read as a match; Input then holds whatever team names
// were recoverable.
type BulkEntry struct {
	Input MatchInput
	Err   error
}

// Entries wraps already decoded inputs for BulkImport.
func Entries(inputs ...MatchInput) []BulkEntry {
	out := make([]BulkEntry, len(inputs))
	for i, in := range inputs {
		out[i] = BulkEntry{Input: in}
	}
	return out
}

// entryTeams picks the team names out of an entry that failed to decode.
type entryTeams struct {
	HomeTeam any `json:"home_team" yaml:"home_team"`
	AwayTeam any `json:"away_team" yaml:"away_team"`
}

func (t entryTeams) failed() BulkEntry {
	name := func(v any) *RawValue {
		if s, ok := v.(string); ok {
			return Raw(s)
		}
		return nil
	}
	return BulkEntry{
		Input: MatchInput{HomeTeam: name(t.HomeTeam), AwayTeam: name(t.AwayTeam)},
		Err:   models.NewValidationError(invalidBulkEntry),
	}
}

// DecodeBulkImport reads a bulk import payload: a JSON array, a JSON object
// wrapping the array text in "jsonData", or a YAML list when contentType says so.
// Only the outer list shape can fail the whole payload; each element is decoded
// on its own.
func DecodeBulkImport(body []byte, contentType string) ([]BulkEntry, error) {
	if strings.Contains(strings.ToLower(contentType), "yaml") {
		return decodeYAMLEntries(body)
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var wrapper struct {
			JSONData string `json:"jsonData"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, models.NewValidationError(invalidBulkPayload)
		}
		body = bytes.TrimSpace([]byte(wrapper.JSONData))
	}

	if len(body) == 0 || body[0] != '[' {
		return nil, models.NewValidationError(invalidBulkPayload)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, models.NewValidationError(invalidBulkPayload)
	}

	entries := make([]BulkEntry, len(raws))
	for i, raw := range raws {
		var in MatchInput
		if err := json.Unmarshal(raw, &in); err != nil {
			var teams entryTeams
			_ = json.Unmarshal(raw, &teams)
			entries[i] = teams.failed()
			continue
		}
		entries[i] = BulkEntry{Input: in}
	}
	return entries, nil
}

func decodeYAMLEntries(body []byte) ([]BulkEntry, error) {
	var nodes []yaml.Node
	if err := yaml.Unmarshal(body, &nodes); err != nil {
		return nil, models.NewValidationError("Invalid YAML format. Expected a list of matches.")
	}

	entries := make([]BulkEntry, len(nodes))
	for i := range nodes {
		node := &nodes[i]
		var in MatchInput
		if node.Kind != yaml.MappingNode {
			entries[i] = entryTeams{}.failed()
			continue
		}
		if err := node.Decode(&in); err != nil {
			var teams entryTeams
			_ = node.Decode(&teams)
			entries[i] = teams.failed()
			continue
		}
		entries[i] = BulkEntry{Input: in}
	}
	return entries, nil
}
