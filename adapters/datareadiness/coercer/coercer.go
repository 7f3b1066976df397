package coercer

import (
	"math"
	"strconv"
	"strings"
)

// TypeCoercer turns hand-entered cell text into numbers and presence flags.
// It never fails: text that does not parse coerces to zero / absent.
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the locale and presence rules
type CoercionConfig struct {
	ThousandsSeparator byte     `json:"thousands_separator"`
	DecimalSeparator   byte     `json:"decimal_separator"`
	AbsentTokens       []string `json:"absent_tokens"` // compared trimmed, case-insensitively
}

// DefaultCoercionConfig matches the Colombian spreadsheet convention: "1.234,56"
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		ThousandsSeparator: '.',
		DecimalSeparator:   ',',
		AbsentTokens:       []string{"0", "no"},
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

var defaultCoercer = NewTypeCoercer(DefaultCoercionConfig())

// ParseNumber coerces text with the default config.
func ParseNumber(s string) float64 {
	return defaultCoercer.ParseNumber(s)
}

// IsPresent applies the default presence rule.
func IsPresent(s string) bool {
	return defaultCoercer.IsPresent(s)
}

// ParseNumber keeps only digits, '-' and the two separators, drops every
// thousands separator, turns the first decimal separator into '.', and
// parses the rest. Empty, garbled, NaN and infinite results are 0.
func (c *TypeCoercer) ParseNumber(s string) float64 {
	if s == "" {
		return 0
	}

	var b strings.Builder
	b.Grow(len(s))
	decimalSeen := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9', ch == '-':
			b.WriteByte(ch)
		case ch == c.config.ThousandsSeparator:
			// dropped
		case ch == c.config.DecimalSeparator:
			if decimalSeen {
				b.WriteByte(ch)
				continue
			}
			decimalSeen = true
			b.WriteByte('.')
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return 0
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0
	}
	return val
}

// IsPresent reports whether a category cell marks participation: non-blank
// after trimming and not one of the absent tokens.
func (c *TypeCoercer) IsPresent(s string) bool {
	v := strings.TrimSpace(s)
	if v == "" {
		return false
	}
	for _, token := range c.config.AbsentTokens {
		if strings.EqualFold(v, token) {
			return false
		}
	}
	return true
}
