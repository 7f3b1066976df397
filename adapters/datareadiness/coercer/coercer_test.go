package coercer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"european decimal", "1.234,56", 1234.56},
		{"empty", "", 0},
		{"word", "NO", 0},
		{"padded integer", "  7 ", 7},
		{"thousands only", "12.500", 12500},
		{"currency", "$ 1.500.000", 1500000},
		{"negative", "-3,5", -3.5},
		{"zero", "0", 0},
		{"dash only", "-", 0},
		{"double minus", "--4", 0},
		{"second comma breaks parse", "1,2,3", 0},
		{"trailing decimal", "5,", 5},
		{"leading decimal", ",5", 0.5},
		{"text around digits", "aprox. 40 estudiantes", 40},
		{"overflow", strings.Repeat("9", 400), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseNumber(tt.input), 1e-9)
		})
	}
}

func TestParseNumberCustomLocale(t *testing.T) {
	c := NewTypeCoercer(CoercionConfig{ThousandsSeparator: ',', DecimalSeparator: '.'})
	assert.InDelta(t, 1234.56, c.ParseNumber("1,234.56"), 1e-9)
}

func TestIsPresent(t *testing.T) {
	absent := []string{"", "   ", "0", " 0 ", "no", "NO", "No", " nO "}
	for _, v := range absent {
		assert.False(t, IsPresent(v), "%q should be absent", v)
	}

	present := []string{"3", "Si", "SI", "x", "2025", "00", "none"}
	for _, v := range present {
		assert.True(t, IsPresent(v), "%q should be present", v)
	}
}
