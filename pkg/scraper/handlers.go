package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/cv"
)

// Handlers are the callbacks behind the built-in inbound routes. Routes
// whose callback is nil answer 404 with an X-Not-Implemented header.
type Handlers struct {
	// CV serves POST /cv.
	CV func(ctx context.Context, s *Server, referenceNr string) (CVResponse, error)
	// CVDocument serves POST /cv-document.
	CVDocument func(ctx context.Context, s *Server, referenceNr string) (Document, error)
	// CheckCredentials serves POST /check-credentials.
	CheckCredentials func(ctx context.Context, s *Server, username, password string) (bool, error)
	// CheckSiteStorageCredentials serves POST /check-site-storage-credentials.
	CheckSiteStorageCredentials func(ctx context.Context, s *Server, creds SiteStorageCredentialsValue) (bool, error)
	// Health serves GET /health. Returned strings are reported as errors.
	Health func(ctx context.Context, s *Server) ([]string, error)
}

// CVResponse is returned by the CV handler.
type CVResponse struct {
	CV          cv.CV `json:"cv"`
	HasDocument bool  `json:"hasDocument,omitempty"`
}

// Document is a CV file.
type Document struct {
	Data     []byte
	Filename string
	MimeType string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

type healthResponse struct {
	Status     bool     `json:"status"`
	LastSentCV *string  `json:"lastSentCv"`
	Errors     []string `json:"errors,omitempty"`
}

type credentialsRequest struct {
	Username *string `json:"username" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

type siteStorageRequest struct {
	Cookies map[string][]string `validate:"omitempty,min=1"`
}

func notImplemented(w http.ResponseWriter) {
	w.Header().Set("X-Not-Implemented", "true")
	writeError(w, http.StatusNotFound, "Not Implemented")
}

// callSafely turns a panicking callback into an error.
func callSafely(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return fn()
}

func (s *Server) lastSentCVString() *string {
	last, ok := s.LastSentCV()
	if !ok {
		return nil
	}
	formatted := last.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return &formatted
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.handlers.Health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: true, LastSentCV: s.lastSentCVString()})
		return
	}

	var problems []string
	err := callSafely(func() error {
		var err error
		problems, err = s.handlers.Health(r.Context(), s)
		return err
	})
	if err != nil {
		s.logger.Warn("failed to check scraper health", zap.Error(err))
		problems = []string{err.Error()}
	}

	if len(problems) == 0 {
		writeJSON(w, http.StatusOK, healthResponse{Status: true, LastSentCV: s.lastSentCVString()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, healthResponse{
		Status:     false,
		LastSentCV: s.lastSentCVString(),
		Errors:     problems,
	})
}

func (s *Server) handleCV(w http.ResponseWriter, r *http.Request) {
	if s.handlers.CV == nil {
		notImplemented(w)
		return
	}
	referenceNr, ok := referenceNrFromBody(w, r)
	if !ok {
		return
	}

	var resp CVResponse
	err := callSafely(func() error {
		var err error
		resp, err = s.handlers.CV(r.Context(), s, referenceNr)
		return err
	})
	if err != nil {
		s.logger.Warn("failed to fetch cv", zap.String("reference_nr", referenceNr), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch cv by reference number")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCVDocument(w http.ResponseWriter, r *http.Request) {
	if s.handlers.CVDocument == nil {
		notImplemented(w)
		return
	}
	referenceNr, ok := referenceNrFromBody(w, r)
	if !ok {
		return
	}

	var doc Document
	err := callSafely(func() error {
		var err error
		doc, err = s.handlers.CVDocument(r.Context(), s, referenceNr)
		return err
	})
	if err != nil {
		s.logger.Warn("failed to fetch cv document", zap.String("reference_nr", referenceNr), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch cv document by reference number")
		return
	}

	w.Header().Set("Filename", cv.FormatFilename(doc.Filename, doc.MimeType))
	if doc.MimeType != "" {
		w.Header().Set("Content-Type", doc.MimeType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data) //nolint:errcheck // client went away
}

func (s *Server) handleCheckCredentials(w http.ResponseWriter, r *http.Request) {
	if s.handlers.CheckCredentials == nil {
		notImplemented(w)
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || validate.Struct(req) != nil {
		writeError(w, http.StatusBadRequest, "Expected a body with a username and password")
		return
	}

	var valid bool
	err := callSafely(func() error {
		var err error
		valid, err = s.handlers.CheckCredentials(r.Context(), s, *req.Username, *req.Password)
		return err
	})
	if err != nil {
		s.logger.Warn("failed to check credentials", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to check credentials")
		return
	}

	status := http.StatusOK
	if !valid {
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]bool{"valid": valid})
}

func (s *Server) handleCheckSiteStorageCredentials(w http.ResponseWriter, r *http.Request) {
	if s.handlers.CheckSiteStorageCredentials == nil {
		notImplemented(w)
		return
	}

	creds, err := decodeSiteStorageCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse body, error: "+err.Error())
		return
	}

	var valid bool
	err = callSafely(func() error {
		var err error
		valid, err = s.handlers.CheckSiteStorageCredentials(r.Context(), s, creds)
		return err
	})
	if err != nil {
		s.logger.Warn("failed to check site storage credentials", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to check credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// referenceNrFromBody reads {"referenceNr": string|number}. On failure the
// 400 response has already been written.
func referenceNrFromBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body != nil {
		if raw, ok := body["referenceNr"]; ok {
			if ref, ok := referenceNrValue(raw); ok {
				return ref, true
			}
		}
	}
	writeError(w, http.StatusBadRequest, "Expected a body with a referenceNr")
	return "", false
}

func referenceNrValue(raw json.RawMessage) (string, bool) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", false
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, true
	}
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&num); err != nil {
		return "", false
	}
	if f, err := num.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

var errNotObject = errors.New("body is not an object")

func decodeSiteStorageCredentials(r *http.Request) (SiteStorageCredentialsValue, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return SiteStorageCredentialsValue{}, err
		}
		return SiteStorageCredentialsValue{}, errNotObject
	}
	if body == nil {
		return SiteStorageCredentialsValue{}, errNotObject
	}

	raw, ok := body["cookies"]
	if !ok || isFalsy(raw) {
		return SiteStorageCredentialsValue{}, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return SiteStorageCredentialsValue{}, errors.New("body.cookies is not an object")
	}
	cookies := make(map[string][]string, len(entries))
	for name, value := range entries {
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil || items == nil {
			return SiteStorageCredentialsValue{}, errors.New("body.cookies[cookieName] is not an array")
		}
		values := make([]string, 0, len(items))
		for _, item := range items {
			var v string
			if err := json.Unmarshal(item, &v); err != nil || bytes.Equal(item, []byte("null")) {
				return SiteStorageCredentialsValue{}, errors.New("body.cookies[cookieName] contains a non-string value")
			}
			values = append(values, v)
		}
		cookies[name] = values
	}

	if err := validate.Struct(siteStorageRequest{Cookies: cookies}); err != nil {
		return SiteStorageCredentialsValue{}, errors.New("body.cookies is empty")
	}
	return SiteStorageCredentialsValue{Cookies: cookies}, nil
}

func isFalsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "null", "false", "0", `""`:
		return true
	default:
		return false
	}
}
