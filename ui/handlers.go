package ui

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sedes/app"
	"sedes/internal/analysis"
	"sedes/internal/errors"
)

// statusForCode maps AppError codes to HTTP status codes
func statusForCode(code string) int {
	switch code {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotLoaded:
		return http.StatusServiceUnavailable
	case errors.CodeTransport:
		return http.StatusBadGateway
	case errors.CodeStructuralIngestion:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func indexParam(c *gin.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, errors.InvalidInput("index must be an integer")
	}
	return index, nil
}

type statusResponse struct {
	Loaded      bool      `json:"loaded"`
	Records     int       `json:"records"`
	Headers     int       `json:"headers"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Source      string    `json:"source,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
}

func (s *Server) handleStatus(c *gin.Context) {
	rs, err := s.service.RecordSet()
	if err != nil {
		c.JSON(http.StatusOK, statusResponse{})
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		Loaded:      true,
		Records:     rs.Len(),
		Headers:     len(rs.Headers),
		Fingerprint: rs.Fingerprint.String(),
		Source:      rs.Source,
		LoadedAt:    rs.LoadedAt,
	})
}

func (s *Server) handleMunicipalities(c *gin.Context) {
	names, err := s.service.Municipalities()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"municipios": names})
}

func (s *Server) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categorias": s.service.Categories()})
}

func (s *Server) handleSearchSites(c *gin.Context) {
	sess := sessionFrom(c)
	matches, err := sess.OnTextQuery(c.Query("q"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": c.Query("q"), "results": matches})
}

func (s *Server) handleSearchCategories(c *gin.Context) {
	sess := sessionFrom(c)
	matches, err := sess.OnCategoryQuery(c.Query("q"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": c.Query("q"), "results": matches})
}

type viewResponse struct {
	View    *app.View        `json:"view"`
	Count   int              `json:"count"`
	Table   *app.Table       `json:"table"`
	Summary analysis.Summary `json:"summary"`
}

func writeView(c *gin.Context, v *app.View) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	c.JSON(http.StatusOK, viewResponse{
		View:    v,
		Count:   v.Len(),
		Table:   app.BuildTable(v, limit),
		Summary: analysis.SummarizeMapped(v.Records(), v.Set.Mapping),
	})
}

func (s *Server) handleSelectSite(c *gin.Context) {
	index, err := indexParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	v, err := sessionFrom(c).SelectSite(index)
	if err != nil {
		s.respondError(c, err)
		return
	}
	writeView(c, v)
}

type categoryRequest struct {
	Label string `json:"label" binding:"required"`
}

func (s *Server) handleSelectCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput("body must be {\"label\": \"...\"}"))
		return
	}
	v, err := sessionFrom(c).SelectCategory(req.Label)
	if err != nil {
		s.respondError(c, err)
		return
	}
	writeView(c, v)
}

type municipalityRequest struct {
	Municipality string `json:"municipio"`
}

func (s *Server) handleSelectMunicipality(c *gin.Context) {
	var req municipalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput("body must be {\"municipio\": \"...\"}"))
		return
	}
	v, err := sessionFrom(c).OnSelectMunicipality(req.Municipality)
	if err != nil {
		s.respondError(c, err)
		return
	}
	writeView(c, v)
}

func (s *Server) handleReset(c *gin.Context) {
	v, err := sessionFrom(c).Reset()
	if err != nil {
		s.respondError(c, err)
		return
	}
	writeView(c, v)
}

func (s *Server) handleView(c *gin.Context) {
	v, err := sessionFrom(c).View()
	if err != nil {
		s.respondError(c, err)
		return
	}
	writeView(c, v)
}

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := sessionFrom(c).Summary()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleDetail(c *gin.Context) {
	index, err := indexParam(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	pairs, err := sessionFrom(c).Detail(index)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": index, "fields": pairs})
}
