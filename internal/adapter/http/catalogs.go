package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/obs-catalog-service/internal/catalog"
	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

type catalogSummary struct {
	Provider   string             `json:"provider"`
	Files      int                `json:"files"`
	LastIngest *domain.ScanReport `json:"last_ingest,omitempty"`
}

type filesResponse struct {
	Provider     string    `json:"provider"`
	WindowBegin  time.Time `json:"window_begin"`
	WindowEnd    time.Time `json:"window_end"`
	CheckReceipt string    `json:"check_receipt"`
	Files        []string  `json:"files"`
}

func (s *Server) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	out := make([]catalogSummary, 0, len(s.registry.Providers()))
	for _, name := range s.registry.Providers() {
		c, err := s.registry.Get(name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		n, err := c.Count(r.Context())
		if err != nil {
			s.logger.Error("count catalog", "provider", name, "error", err)
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		summary := catalogSummary{Provider: name, Files: n}
		if report, ok := c.LastReport(); ok {
			summary.LastIngest = &report
		}
		out = append(out, summary)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	c, err := s.registry.Get(provider)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	req, err := parseQueryRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	files, err := c.Query(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrInvalidReceiptMode):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		s.logger.Error("query catalog", "provider", provider, "error", err)
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	mode, _ := domain.ParseReceiptMode(string(req.CheckReceipt))
	writeJSON(w, http.StatusOK, filesResponse{
		Provider:     provider,
		WindowBegin:  req.WindowBegin,
		WindowEnd:    req.WindowEnd,
		CheckReceipt: string(mode),
		Files:        files,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	report, err := s.registry.Ingest(r.Context(), provider)
	switch {
	case errors.Is(err, domain.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, catalog.ErrIngestInProgress):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		s.logger.Error("ingest", "provider", provider, "error", err)
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

// parseQueryRequest reads the window either as begin/end RFC 3339 instants
// or as a cycle (YYYYMMDDHH) with a half-width in window_hours.
func parseQueryRequest(q url.Values) (catalog.QueryRequest, error) {
	req := catalog.QueryRequest{
		Instrument:   q.Get("instrument"),
		Satellite:    q.Get("satellite"),
		ObsType:      q.Get("obs_type"),
		CheckReceipt: domain.ReceiptMode(q.Get("check_receipt")),
	}

	if cycle := q.Get("cycle"); cycle != "" {
		if q.Has("begin") || q.Has("end") {
			return req, errors.New("cycle cannot be combined with begin or end")
		}
		at, err := domain.ParseCycle(cycle)
		if err != nil {
			return req, err
		}
		halfWidth := 3 * time.Hour
		if v := q.Get("window_hours"); v != "" {
			hours, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return req, fmt.Errorf("invalid window_hours %q", v)
			}
			if halfWidth, err = domain.WindowHalfWidth(hours); err != nil {
				return req, fmt.Errorf("invalid window_hours: %w", err)
			}
		}
		req.WindowBegin, req.WindowEnd = domain.CycleWindow(at, halfWidth)
		return req, nil
	}

	var err error
	if req.WindowBegin, err = parseInstant(q, "begin"); err != nil {
		return req, err
	}
	if req.WindowEnd, err = parseInstant(q, "end"); err != nil {
		return req, err
	}
	return req, nil
}

func parseInstant(q url.Values, key string) (time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return time.Time{}, fmt.Errorf("missing %s (or use cycle)", key)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want RFC 3339", key, v)
	}
	return t.UTC(), nil
}
