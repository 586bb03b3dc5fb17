package types

import (
	"fmt"
	"strings"
)

// DefaultURLTemplate is the chart page address. The placeholders are
// replaced verbatim by the query tokens.
const DefaultURLTemplate = "https://playboard.co/chart/{category}/most-viewed-all-videos-in-{country}-{period}"

// Query selects one chart: a video category, a country and a time period,
// e.g. {"short", "south-korea", "daily"}.
type Query struct {
	Category string `json:"category"`
	Country  string `json:"country"`
	Period   string `json:"period"`
}

// Validate rejects tokens that would escape their slot in the URL template.
func (q Query) Validate() error {
	tokens := []struct{ name, value string }{
		{"category", q.Category},
		{"country", q.Country},
		{"period", q.Period},
	}
	for _, tok := range tokens {
		if tok.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidQuery, tok.name)
		}
		if strings.ContainsAny(tok.value, "/?#& \t\n") {
			return fmt.Errorf("%w: %s %q contains a reserved character", ErrInvalidQuery, tok.name, tok.value)
		}
	}
	return nil
}

// URL interpolates the query into template. An empty template falls back
// to DefaultURLTemplate.
func (q Query) URL(template string) string {
	if template == "" {
		template = DefaultURLTemplate
	}
	return strings.NewReplacer(
		"{category}", q.Category,
		"{country}", q.Country,
		"{period}", q.Period,
	).Replace(template)
}

func (q Query) String() string {
	return q.Category + "/" + q.Country + "/" + q.Period
}
