package services

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed leagues.yaml
var leaguesYAML []byte

type leagueCatalogue struct {
	Leagues []string `yaml:"leagues"`
}

// LoadLeagues returns the league names offered in the admin forms.
func LoadLeagues() ([]string, error) {
	var cat leagueCatalogue
	if err := yaml.Unmarshal(leaguesYAML, &cat); err != nil {
		return nil, fmt.Errorf("parse league catalogue: %w", err)
	}
	return cat.Leagues, nil
}
