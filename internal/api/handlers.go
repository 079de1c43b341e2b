package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/export"
	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
	"github.com/JakeFAU/realtime-lead-scraper/internal/service"
)

const (
	serviceName        = "Lead Scraper API"
	serviceVersion     = "2.0.0"
	serviceDescription = "Automated lead generation from free business directories"
	internalError      = "Internal server error"
)

var endpoints = map[string]string{
	"POST /api/leads/search":      "Search leads by industry and location",
	"GET /api/leads":              "Get all leads",
	"GET /api/stats":              "Get database statistics",
	"POST /api/scrape/trigger":    "Manually trigger scraping for a URL",
	"POST /api/scrape/bulk":       "Bulk scrape multiple URLs",
	"GET /api/scrape/targets":     "Get all scraping targets",
	"POST /api/scrape/targets":    "Add a new scraping target",
	"GET /api/leads/export/csv":   "Export leads as CSV",
	"POST /api/leads/deduplicate": "Remove duplicate leads",
	"DELETE /api/leads/clear":     "Clear all leads (admin)",
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        serviceName,
		"version":     serviceVersion,
		"description": serviceDescription,
		"endpoints":   endpoints,
		"sources":     s.svc.SourceBreakdown(),
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	leads, targets, err := s.svc.Health(r.Context())
	status, code := "ok", http.StatusOK
	if err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":       status,
		"totalLeads":   leads,
		"totalTargets": targets,
		"timestamp":    s.clock.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, _, err := s.svc.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) triggerScrape(w http.ResponseWriter, r *http.Request) {
	var req service.TriggerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.TriggerScrape(r.Context(), req)
	if err != nil {
		s.fail(w, err, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"scraped":    res.Scraped,
		"added":      res.Added,
		"duplicates": res.Duplicates,
		"data":       res.Leads,
	})
}

type bulkTarget struct {
	URL          string `json:"url"`
	Industry     string `json:"industry"`
	Location     string `json:"location"`
	Source       string `json:"source"`
	RequiresAuth bool   `json:"requiresAuth"`
}

func (s *Server) bulkScrape(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Targets json.RawMessage `json:"targets"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	raw := bytes.TrimSpace(req.Targets)
	var items []bulkTarget
	if len(raw) == 0 || raw[0] != '[' || json.Unmarshal(raw, &items) != nil {
		writeError(w, http.StatusBadRequest, "Targets must be an array")
		return
	}
	list := make([]lead.Target, 0, len(items))
	for _, it := range items {
		list = append(list, lead.Target{
			URL:          it.URL,
			Industry:     it.Industry,
			Location:     it.Location,
			SourceName:   it.Source,
			RequiresAuth: it.RequiresAuth,
		})
	}
	res, err := s.svc.BulkScrape(r.Context(), list)
	if err != nil {
		s.fail(w, err, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"scraped":    res.Scraped,
		"added":      res.Added,
		"duplicates": res.Duplicates,
		"totalLeads": res.TotalLeads,
	})
}

func (s *Server) searchLeads(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Industry  string   `json:"industry"`
		Location  string   `json:"location"`
		LeadCount looseInt `json:"leadCount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	leads, q, err := s.svc.Search(r.Context(), service.SearchRequest{
		Industry: req.Industry,
		Location: req.Location,
		Limit:    int(req.LeadCount),
	})
	if err != nil {
		s.fail(w, err, internalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(leads),
		"query":   q,
		"data":    leads,
	})
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.List(r.Context(), atoiOrZero(r.URL.Query().Get("limit")), atoiOrZero(r.URL.Query().Get("offset")))
	if err != nil {
		s.fail(w, err, internalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   page.Total,
		"count":   len(page.Leads),
		"limit":   page.Limit,
		"offset":  page.Offset,
		"data":    page.Leads,
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.fail(w, err, internalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}

func (s *Server) listTargets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filtered, total := s.svc.ListTargets(lead.TargetQuery{
		Industry: q.Get("industry"),
		Location: q.Get("location"),
		Source:   q.Get("source"),
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"total":    total,
		"filtered": len(filtered),
		"sources":  s.svc.TargetSources(),
		"data":     filtered,
	})
}

func (s *Server) addTarget(w http.ResponseWriter, r *http.Request) {
	var req service.TargetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	target, total, err := s.svc.AddTarget(req)
	if err != nil {
		s.fail(w, err, internalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      service.TargetAddedMessage,
		"target":       target,
		"totalTargets": total,
	})
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	body, filename, err := s.svc.Export(r.Context())
	if err != nil {
		if errors.Is(err, export.ErrEmptyExport) {
			writeError(w, http.StatusBadRequest, "No leads to export")
			return
		}
		s.fail(w, err, internalError)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		s.logger.Warn("write csv failed", zap.Error(err))
	}
}

func (s *Server) dedupeLeads(w http.ResponseWriter, r *http.Request) {
	removed, remaining, err := s.svc.Dedupe(r.Context())
	if err != nil {
		s.fail(w, err, internalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"removed":   removed,
		"remaining": remaining,
	})
}

func (s *Server) clearLeads(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Clear(r.Context())
	if err != nil {
		s.fail(w, err, internalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Cleared %d leads", n),
	})
}

// fail maps validation errors to 400 and everything else to 500 with msg.
func (s *Server) fail(w http.ResponseWriter, err error, msg string) {
	var ve *lead.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Message)
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

// decodeBody reads a JSON object into dst. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "Invalid JSON body")
	return false
}

// looseInt accepts a JSON number or numeric string. Anything else is zero.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		if !math.IsNaN(t) && !math.IsInf(t, 0) {
			*n = looseInt(int(t))
		}
	case string:
		*n = looseInt(atoiOrZero(t))
	default:
		*n = 0
	}
	return nil
}

// atoiOrZero parses the leading integer of s, or returns zero.
func atoiOrZero(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}
