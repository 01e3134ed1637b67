package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Path      string `json:"path,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// assessRequest mirrors domain.BuildingInput with pointers so that missing
// fields can be told apart from zero values.
type assessRequest struct {
	Neighborhood    *string  `json:"neighborhood"`
	FoundationType  *string  `json:"foundationType"`
	Elevation       *float64 `json:"elevation"`
	Materials       *string  `json:"materials"`
	FloodMitigation *string  `json:"floodMitigation"`
}

// Bind implements render.Binder.
func (a *assessRequest) Bind(_ *http.Request) error {
	required := []struct {
		field string
		value *string
	}{
		{"neighborhood", a.Neighborhood},
		{"foundationType", a.FoundationType},
		{"materials", a.Materials},
		{"floodMitigation", a.FloodMitigation},
	}
	for _, r := range required {
		if r.value == nil {
			return &domain.InputError{Field: r.field, Reason: "is required"}
		}
	}
	if a.Elevation == nil {
		return &domain.InputError{Field: "elevation", Reason: "is required"}
	}
	return nil
}

func (a *assessRequest) input() domain.BuildingInput {
	return domain.BuildingInput{
		Neighborhood:    *a.Neighborhood,
		FoundationType:  *a.FoundationType,
		Elevation:       *a.Elevation,
		Materials:       *a.Materials,
		FloodMitigation: *a.FloodMitigation,
	}
}

type neighborhoodSummary struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	BaseBFE   float64               `json:"baseBFE"`
	FloodZone string                `json:"floodZone"`
	RiskLevel domain.StormSurgeRisk `json:"riskLevel"`
}

type foundationSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Rank           int     `json:"rank"`
	VZoneAllowed   bool    `json:"vZoneAllowed"`
	AZoneAllowed   bool    `json:"aZoneAllowed"`
	CostMultiplier float64 `json:"costMultiplier"`
}

type materialSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	FloodResistance float64 `json:"floodResistance"`
}

type mitigationSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Effectiveness float64 `json:"effectiveness"`
	Cost          float64 `json:"cost"`
	Required      bool    `json:"required"`
	Description   string  `json:"description"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req assessRequest
	if err := render.Bind(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.assessor.Assess(r.Context(), req.input())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			s.fail(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("assessment failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		s.fail(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, envelope{Success: true, Data: result, Timestamp: s.timestamp()})
}

func (s *Server) handleNeighborhoods(w http.ResponseWriter, r *http.Request) {
	hoods := s.catalog.Neighborhoods()
	out := make([]neighborhoodSummary, 0, len(hoods))
	for _, n := range hoods {
		out = append(out, neighborhoodSummary{
			ID:        n.ID,
			Name:      n.Name,
			BaseBFE:   n.BaseBFE,
			FloodZone: n.FloodZone,
			RiskLevel: n.StormSurgeRisk,
		})
	}
	s.ok(w, r, out)
}

func (s *Server) handleNeighborhood(w http.ResponseWriter, r *http.Request) {
	n, ok := s.catalog.Neighborhood(chi.URLParam(r, "neighborhoodID"))
	if !ok {
		s.fail(w, r, http.StatusNotFound, "Neighborhood not found")
		return
	}
	s.ok(w, r, n)
}

func (s *Server) handleFoundationTypes(w http.ResponseWriter, r *http.Request) {
	foundations := s.catalog.Foundations()
	out := make([]foundationSummary, 0, len(foundations))
	for _, f := range foundations {
		out = append(out, foundationSummary{
			ID:             f.ID,
			Name:           f.Name,
			Rank:           int(f.Rank),
			VZoneAllowed:   f.VZoneAllowed,
			AZoneAllowed:   f.AZoneAllowed,
			CostMultiplier: f.ConstructionCostMultiplier,
		})
	}
	s.ok(w, r, out)
}

func (s *Server) handleMaterials(w http.ResponseWriter, r *http.Request) {
	materials := s.catalog.Materials()
	out := make([]materialSummary, 0, len(materials))
	for _, m := range materials {
		out = append(out, materialSummary{ID: m.ID, Name: m.Name, FloodResistance: m.FloodResistance})
	}
	s.ok(w, r, out)
}

func (s *Server) handleMitigationOptions(w http.ResponseWriter, r *http.Request) {
	mitigations := s.catalog.Mitigations()
	out := make([]mitigationSummary, 0, len(mitigations))
	for _, m := range mitigations {
		out = append(out, mitigationSummary{
			ID:            m.ID,
			Name:          m.Name,
			Effectiveness: m.Effectiveness,
			Cost:          m.Cost,
			Required:      m.NFIPRequired,
			Description:   m.Description,
		})
	}
	s.ok(w, r, out)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, envelope{Error: "Route not found", Path: r.URL.RequestURI()})
}

func (s *Server) ok(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, envelope{Success: true, Data: data})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, envelope{Error: msg, Timestamp: s.timestamp()})
}

func (s *Server) timestamp() string {
	return s.clock.Now().UTC().Format(time.RFC3339)
}
