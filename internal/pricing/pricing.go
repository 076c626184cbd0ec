// Package pricing holds the static per-token price table.
package pricing

import "sort"

// Price is the USD cost of one token.
type Price struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// table prices are USD per token.
var table = map[string]Price{
	"gpt-4o-mini":   {Input: 0.150 / 1_000_000, Output: 0.600 / 1_000_000},
	"gpt-4o":        {Input: 2.50 / 1_000_000, Output: 10.00 / 1_000_000},
	"gpt-3.5-turbo": {Input: 0.50 / 1_000_000, Output: 1.50 / 1_000_000},
}

// Lookup returns the price of model and whether the model is listed.
func Lookup(model string) (Price, bool) {
	p, ok := table[model]
	return p, ok
}

// Calculate returns the USD cost of a call. Unlisted models cost 0;
// use Lookup to tell a free call from an unpriced one.
func Calculate(model string, inputTokens, outputTokens int) float64 {
	p, ok := table[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)*p.Input + float64(outputTokens)*p.Output
}

// Models returns the priced model names, sorted.
func Models() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
