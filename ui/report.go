package ui

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sedes/app"
	"sedes/internal/analysis"
)

const reportTitle = "Resumen de sedes educativas"

var numbers = message.NewPrinter(language.Spanish)

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return numbers.Sprintf("%d", int64(v))
	}
	return numbers.Sprintf("%.2f", v)
}

// escapeCell keeps free text from breaking a markdown table row
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}

// BuildReport renders the summary of a view as markdown
func BuildReport(v *app.View, s analysis.Summary) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", reportTitle)
	if v.Set != nil {
		fmt.Fprintf(&b, "Fuente: `%s`  \nCargado: %s\n\n", v.Set.Source, v.Set.LoadedAt.Format("2006-01-02 15:04"))
	}
	if v.Message != "" {
		fmt.Fprintf(&b, "Filtro: **%s**\n\n", escapeCell(v.Message))
	}

	b.WriteString("| Indicador | Valor |\n|---|---:|\n")
	rows := []struct {
		label string
		value float64
	}{
		{"Sedes", float64(s.SiteCount)},
		{"Estudiantes", s.TotalStudents},
		{"Docentes", s.TotalTeachers},
		{"Estudiantes zona rural", s.RuralStudents},
		{"Estudiantes zona urbana", s.UrbanStudents},
		{"Promedio de estudiantes por sede", s.AverageStudentsPerSite},
		{"Mediana de estudiantes por sede", s.MedianStudentsPerSite},
		{"Estudiantes por docente", s.StudentsPerTeacher},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r.label, formatNumber(r.value))
	}

	if len(s.ByMunicipality) > 0 {
		b.WriteString("\n## Estudiantes por municipio\n\n")
		b.WriteString("| Municipio | Rural | Urbano |\n|---|---:|---:|\n")
		for _, m := range s.ByMunicipality {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(m.Name), formatNumber(m.Rural), formatNumber(m.Urban))
		}
	}
	return b.Bytes()
}

// RenderReportHTML turns report markdown into a standalone HTML page
func RenderReportHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse(md)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: reportTitle,
	})
	return markdown.Render(doc, renderer)
}

func (s *Server) handleReport(c *gin.Context) {
	sess := sessionFrom(c)
	v, err := sess.View()
	if err != nil {
		s.respondError(c, err)
		return
	}
	md := BuildReport(v, analysis.SummarizeMapped(v.Records(), v.Set.Mapping))

	if c.Query("format") == "md" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", md)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", RenderReportHTML(md))
}
