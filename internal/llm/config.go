// Package llm provides the language-model client used for structured job
// extraction and free-text answers. Only Gemini is implemented today; the
// Client interface keeps call sites provider-agnostic.
package llm

// ModelTier selects the capability level for a call.
type ModelTier string

const (
	// TierLite handles cheap free-text generation (custom prompt answers).
	TierLite ModelTier = "lite"
	// TierStandard handles structured extraction with schema constraints.
	TierStandard ModelTier = "standard"
)

// Config holds the per-tier model selection.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
	}
}

// Model returns the model name for a tier, falling back to TierStandard.
func (c *Config) Model(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierStandard]
}

// WithModel returns a copy of the config with one tier overridden.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := &Config{Models: make(map[ModelTier]string, len(c.Models))}
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return next
}
