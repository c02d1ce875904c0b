package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Models map[string]ModelRate `yaml:"models" mapstructure:"models"`
	Lusha  LushaRate            `yaml:"lusha" mapstructure:"lusha"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// LushaRate holds Lusha credit pricing. Every revealed contact costs one
// credit.
type LushaRate struct {
	PerCredit float64 `yaml:"per_credit" mapstructure:"per_credit"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates. Missing model
// rates fall back to DefaultRates.
func NewCalculator(rates Rates) *Calculator {
	def := DefaultRates()
	if len(rates.Models) == 0 {
		rates.Models = def.Models
	}
	if rates.Lusha.PerCredit == 0 {
		rates.Lusha = def.Lusha
	}
	return &Calculator{rates: rates}
}

// Model computes the cost of one completion. Unknown models cost nothing.
func (c *Calculator) Model(model string, input, output int64) float64 {
	rate, ok := c.rates.Models[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Enrichment computes the credit cost of revealing n contacts.
func (c *Calculator) Enrichment(n int) float64 {
	return float64(n) * c.rates.Lusha.PerCredit
}

// DefaultRates returns the default pricing rates in USD.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"gpt-4.1-mini":               {Input: 0.40, Output: 1.60},
		},
		Lusha: LushaRate{PerCredit: 0.10},
	}
}
