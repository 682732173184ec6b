package search

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Selectors pins down the pieces of the search page the checker touches.
// The target DOM belongs to a third party and changes without notice, so
// every selector and the expected label phrase can be overridden from a
// YAML file.
type Selectors struct {
	URL           string `yaml:"url"`
	Input         string `yaml:"input"`
	Submit        string `yaml:"submit"`
	ResultsLabel  string `yaml:"results_label"`
	NoResults     string `yaml:"no_results"`
	ExpectedLabel string `yaml:"expected_label"`
}

// DefaultSelectors returns the USASpending award-search selectors.
func DefaultSelectors() Selectors {
	return Selectors{
		URL:           "https://www.usaspending.gov/search?hash=924356742dd57817f0e9197e858e75cd",
		Input:         "#search",
		Submit:        `button[aria-label="Click to submit your search."]`,
		ResultsLabel:  "span.filter__dropdown-label",
		NoResults:     "p.new-search__no-results-text",
		ExpectedLabel: "Prime Award Results",
	}
}

// LoadSelectors returns the defaults overlaid with any values set in the
// YAML file at path. An empty path returns the defaults unchanged.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Selectors{}, eris.Wrapf(err, "search: read selectors file %s", path)
	}
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return Selectors{}, eris.Wrapf(err, "search: parse selectors file %s", path)
	}
	return sel, nil
}
