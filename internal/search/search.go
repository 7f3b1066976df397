// Package search implements the two suggestion boxes of the dashboard: a
// scored site lookup and a category lookup over configured column labels.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"sedes/adapters/datareadiness/coercer"
	"sedes/domain/dataset"
	"sedes/internal/textnorm"
)

const (
	// MaxSiteSuggestions caps the site suggestion list
	MaxSiteSuggestions = 50
	// MinQueryRunes is the shortest normalized site query that is searched
	MinQueryRunes = 2
)

// Site scoring weights
const (
	scoreSitePrefix          = 100
	scoreSiteContains        = 50
	scoreInstitutionPrefix   = 80
	scoreInstitutionContains = 40
	scoreCodeContains        = 60
)

// SiteMatch is one ranked site suggestion. The display fields hold the raw
// cell text read through the RecordSet's field mapping.
type SiteMatch struct {
	Index         int             `json:"index"`
	Record        *dataset.Record `json:"-"`
	Score         int             `json:"score"`
	MatchedFields []string        `json:"matched_fields"`
	Site          string          `json:"sede"`
	Institution   string          `json:"institucion"`
	Municipality  string          `json:"municipio"`
	Code          string          `json:"codigo"`
}

// CategoryMatch is one category suggestion with the number of sites that
// carry the category.
type CategoryMatch struct {
	Label string `json:"label"`
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// SearchSites ranks records against a free-text query. The municipality is
// indexed but never scored.
func SearchSites(rs *dataset.RecordSet, query string) []SiteMatch {
	q := textnorm.ForSearch(query)
	if utf8.RuneCountInString(q) < MinQueryRunes || rs.Len() == 0 {
		return []SiteMatch{}
	}

	matches := make([]SiteMatch, 0)
	for i, r := range rs.Records {
		m := scoreRecord(r, q)
		if m.Score <= 0 {
			continue
		}
		m.Index = i
		m.Record = r
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > MaxSiteSuggestions {
		matches = matches[:MaxSiteSuggestions]
	}

	mapping := rs.Mapping
	for i := range matches {
		r := matches[i].Record
		matches[i].Site = r.First(mapping.Site...)
		matches[i].Institution = r.First(mapping.Institution...)
		matches[i].Municipality = r.First(mapping.Municipality...)
		matches[i].Code = r.First(mapping.Code...)
	}
	return matches
}

func scoreRecord(r *dataset.Record, q string) SiteMatch {
	var m SiteMatch
	meta := r.Meta

	switch {
	case strings.HasPrefix(meta.Site, q):
		m.Score += scoreSitePrefix
		m.MatchedFields = append(m.MatchedFields, "site")
	case strings.Contains(meta.Site, q):
		m.Score += scoreSiteContains
		m.MatchedFields = append(m.MatchedFields, "site")
	}

	switch {
	case strings.HasPrefix(meta.Institution, q):
		m.Score += scoreInstitutionPrefix
		m.MatchedFields = append(m.MatchedFields, "institution")
	case strings.Contains(meta.Institution, q):
		m.Score += scoreInstitutionContains
		m.MatchedFields = append(m.MatchedFields, "institution")
	}

	if strings.Contains(meta.Code, q) {
		m.Score += scoreCodeContains
		m.MatchedFields = append(m.MatchedFields, "code")
	}
	return m
}

// SearchCategories returns the labels whose normalized text contains the
// normalized query, in label order, keeping only those with at least one
// site carrying the category.
func SearchCategories(rs *dataset.RecordSet, labels []string, query string) []CategoryMatch {
	q := textnorm.ForSearch(query)
	if strings.TrimSpace(q) == "" || rs.Len() == 0 {
		return []CategoryMatch{}
	}

	matches := make([]CategoryMatch, 0)
	for _, label := range labels {
		if !strings.Contains(textnorm.ForSearch(label), q) {
			continue
		}
		key := CategoryKey(label)
		count := 0
		for _, r := range rs.Records {
			if coercer.IsPresent(r.Get(key)) {
				count++
			}
		}
		if count > 0 {
			matches = append(matches, CategoryMatch{Label: label, Key: key, Count: count})
		}
	}
	return matches
}

// CategoryKey maps a category label to the record key it is read from.
func CategoryKey(label string) string {
	return textnorm.NormalizeKey(label).Key
}

// FilterByCategory returns the indices of records carrying the category key.
func FilterByCategory(rs *dataset.RecordSet, key string) []int {
	indices := make([]int, 0)
	if rs == nil {
		return indices
	}
	for i, r := range rs.Records {
		if coercer.IsPresent(r.Get(key)) {
			indices = append(indices, i)
		}
	}
	return indices
}

// FilterByMunicipality returns the indices of records whose raw municipality
// equals name exactly.
func FilterByMunicipality(rs *dataset.RecordSet, name string) []int {
	indices := make([]int, 0)
	if rs == nil {
		return indices
	}
	for i, r := range rs.Records {
		if r.First(rs.Mapping.Municipality...) == name {
			indices = append(indices, i)
		}
	}
	return indices
}

// DefaultCategoryLabels is the project column list of the published sheet.
func DefaultCategoryLabels() []string {
	return []string{
		"2022 ERA", "2023 Docentes", "2023 Estudiantes", "2024 Docentes", "2024 Estudiantes",
		"2025 Docentes", "2025 Estudiantes",
		"2022 ESC_VIDA", "2023 ESC_VIDA", "2024 ESC_VIDA", "2025 ESC_VIDA", "2024 NIDO", "2025 NIDO",
		"BATUTA 2025", "ATAL 2025", "FCC 2025", "PASC 2025",
		"MAMM 2025", "BECA UDEA 2025", "PC 2023", "PC 2024",
		"Bibliográfica (Dotación)", "Deportiva (Dotación)", "INFRAEST. Gob",
		"Legalización Predio Resolución de sana posesión", "Bienestar Maestro", "SENA (Oferta)",
		"COMFAMA inspiración", "AGUA (Alianza por el Agua)",
		"Agua Fund.EPM", "Agua potable", "Conectividad", "Embellecimiento Escuelas",
	}
}
