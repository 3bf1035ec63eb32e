package usage

import (
	"github.com/shopspring/decimal"
)

// Rate is USD per 1000 tokens.
type Rate struct {
	Input  decimal.Decimal
	Output decimal.Decimal
}

type providerPricing struct {
	fallback Rate
	models   map[string]Rate
}

var thousand = decimal.NewFromInt(1000)

func rate(input, output string) Rate {
	return Rate{Input: decimal.RequireFromString(input), Output: decimal.RequireFromString(output)}
}

// pricing is built once at init and only read afterwards.
var (
	defaultRate = rate("0.01", "0.03")

	pricing = map[string]providerPricing{
		"openai": {
			fallback: rate("0.01", "0.03"),
			models: map[string]Rate{
				"gpt-4o":             rate("0.01", "0.03"),
				"gpt-4-1106-preview": rate("0.01", "0.03"),
				"gpt-4-0613":         rate("0.03", "0.06"),
				"gpt-3.5-turbo":      rate("0.001", "0.002"),
			},
		},
		"anthropic": {
			fallback: rate("0.003", "0.015"),
			models: map[string]Rate{
				"claude-3-5-sonnet-20240620": rate("0.003", "0.015"),
				"claude-3-opus-20240229":     rate("0.015", "0.075"),
				"claude-3-sonnet-20240229":   rate("0.003", "0.015"),
				"claude-3-haiku-20240307":    rate("0.00025", "0.00125"),
			},
		},
		"gemini": {
			fallback: rate("0.0003", "0.0025"),
			models: map[string]Rate{
				"gemini-2.5-flash":      rate("0.0003", "0.0025"),
				"gemini-2.5-flash-lite": rate("0.0001", "0.0004"),
				"gemini-2.5-pro":        rate("0.00125", "0.01"),
			},
		},
	}
)

// RateFor resolves model rate, then provider default, then the global default.
func RateFor(provider, model string) Rate {
	p, ok := pricing[provider]
	if !ok {
		return defaultRate
	}
	if r, ok := p.models[model]; ok {
		return r
	}
	return p.fallback
}

// CalculateCost is (prompt/1000)*input + (completion/1000)*output.
func CalculateCost(provider, model string, promptTokens, completionTokens int) decimal.Decimal {
	r := RateFor(provider, model)
	input := decimal.NewFromInt(int64(promptTokens)).Div(thousand).Mul(r.Input)
	output := decimal.NewFromInt(int64(completionTokens)).Div(thousand).Mul(r.Output)
	return input.Add(output)
}
