package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/rtcv-scraper-bridge/internal/hash/sha256"
	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/cv"
	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/cvcache"
	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/scraper"
	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/stats"
)

var errCVNotCached = errors.New("cv not cached")

// sidecar lets a scraper written in any language hand its CVs to the bridge.
// Forwarded CVs are cached so RT-CV can fetch them back through POST /cv.
type sidecar struct {
	stats  *stats.Stats
	cache  *cvcache.Cache
	hasher *sha256.Hasher
	logger *zap.Logger

	received  prometheus.Counter
	forwarded prometheus.Counter
	skipped   prometheus.Counter
	failed    prometheus.Counter
}

func newSidecar(slug string, logger *zap.Logger) *sidecar {
	st := stats.New(slug)
	return &sidecar{
		stats:     st,
		cache:     cvcache.New(st),
		hasher:    sha256.New(),
		logger:    logger,
		received:  st.Counter("cvs_received"),
		forwarded: st.Counter("cvs_forwarded"),
		skipped:   st.Counter("cvs_skipped"),
		failed:    st.Counter("cvs_failed"),
	}
}

type scrapedCVResponse struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

type loginAttemptRequest struct {
	Username string `json:"username"`
	Success  bool   `json:"success"`
}

func (sc *sidecar) handlers() scraper.Handlers {
	return scraper.Handlers{
		CV: func(_ context.Context, _ *scraper.Server, referenceNr string) (scraper.CVResponse, error) {
			entry, ok := sc.cache.Get(referenceNr)
			if !ok {
				return scraper.CVResponse{}, errCVNotCached
			}
			return scraper.CVResponse{CV: entry}, nil
		},
	}
}

func (sc *sidecar) customHandlers() []scraper.CustomHandler {
	return []scraper.CustomHandler{
		{Method: http.MethodPost, Path: "/scraped-cv", Handler: sc.handleScrapedCV},
		{Method: http.MethodPost, Path: "/login-attempt", Handler: sc.handleLoginAttempt},
	}
}

// handleScrapedCV forwards one CV. Stale CVs and CVs forwarded earlier with
// the same content are acknowledged without contacting RT-CV.
func (sc *sidecar) handleScrapedCV(s *scraper.Server, w http.ResponseWriter, r *http.Request) {
	var entry cv.CV
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Expected a cv as body"})
		return
	}
	sc.received.Inc()

	if err := cv.Validate(entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if !entry.IsRecent() {
		sc.skipped.Inc()
		writeJSON(w, http.StatusOK, scrapedCVResponse{Reason: "not changed recently"})
		return
	}
	if sc.unchanged(entry) {
		sc.skipped.Inc()
		writeJSON(w, http.StatusOK, scrapedCVResponse{Reason: "already sent"})
		return
	}

	if err := s.SendCV(r.Context(), entry); err != nil {
		sc.failed.Inc()
		sc.logger.Warn("failed to forward cv",
			zap.String("reference_number", entry.ReferenceNumber),
			zap.String("request_id", scraper.RequestID(r.Context())),
			zap.Error(err),
		)
		status := http.StatusBadGateway
		var verr *scraper.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	sc.cache.Store(entry)
	sc.forwarded.Inc()
	writeJSON(w, http.StatusAccepted, scrapedCVResponse{Sent: true})
}

func (sc *sidecar) unchanged(entry cv.CV) bool {
	cached, ok := sc.cache.Get(entry.ReferenceNumber)
	if !ok {
		return false
	}
	before, err := sc.hasher.HashCV(cached)
	if err != nil {
		return false
	}
	after, err := sc.hasher.HashCV(entry)
	if err != nil {
		return false
	}
	return before == after
}

func (sc *sidecar) handleLoginAttempt(s *scraper.Server, w http.ResponseWriter, r *http.Request) {
	var req loginAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Expected a body with a username and success"})
		return
	}
	s.ReportLoginAttempt(r.Context(), req.Username, req.Success)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) //nolint:errcheck // client went away
}
