// Package textnorm folds spreadsheet text into canonical header keys and
// accent-free search text.
package textnorm

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"sedes/domain/dataset"
)

// KeySeparator joins the alphanumeric runs of a header key.
const KeySeparator = "_"

// RepairEncoding undoes UTF-8 text that was decoded as Latin-1 upstream
// ("InstituciÃ³n" -> "Institución"). Text that is not such mojibake,
// including plain ASCII and correctly decoded accents, comes back unchanged.
func RepairEncoding(s string) string {
	if s == "" || isASCII(s) {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	if !utf8.ValidString(raw) {
		return s
	}
	return raw
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// StripDiacritics decomposes s and removes nonspacing marks.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
}

// NormalizeKey derives the display label and canonical key for a header cell.
// The key contains only [A-Z0-9_] and never starts or ends with "_"; it is
// empty when the cell has no ASCII letters or digits.
func NormalizeKey(raw string) dataset.HeaderEntry {
	visible := strings.TrimSpace(stripControl(RepairEncoding(raw)))
	visible = StripDiacritics(visible)
	return dataset.HeaderEntry{Visible: visible, Key: keyOf(visible)}
}

func keyOf(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range StripDiacritics(s) {
		if r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			b.WriteRune(unicode.ToUpper(r))
			inRun = false
			continue
		}
		if !inRun {
			b.WriteString(KeySeparator)
			inRun = true
		}
	}
	return strings.TrimSuffix(strings.TrimPrefix(b.String(), KeySeparator), KeySeparator)
}

// PositionalKey is the fallback key for a header that normalizes to "".
func PositionalKey(index int) string {
	return "COL_" + strconv.Itoa(index)
}

// ForSearch returns the accent-free, lower-case form of s used for every
// search-time comparison.
func ForSearch(s string) string {
	if s == "" {
		return ""
	}
	return StripDiacritics(strings.ToLower(RepairEncoding(s)))
}

// ForSearchValue is ForSearch for values that may be absent.
func ForSearchValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return ForSearch(t)
	case *string:
		if t == nil {
			return ""
		}
		return ForSearch(*t)
	case interface{ String() string }:
		return ForSearch(t.String())
	default:
		return ""
	}
}
