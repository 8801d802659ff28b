package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/rtcv-scraper-bridge/internal/backend"
	"github.com/JakeFAU/rtcv-scraper-bridge/internal/metrics"
	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/cv"
)

// FetchOptions describes a raw RT-CV call. Body is sent as JSON unless it is a *Form.
type FetchOptions = backend.Request

// Form is a multipart body for Fetch.
type Form = backend.Form

// NewForm returns an empty multipart body.
func NewForm() *Form {
	return backend.NewForm()
}

// Fetch makes a single call to RT-CV and decodes the JSON answer into out.
func (s *Server) Fetch(ctx context.Context, path string, opts FetchOptions, out any) error {
	return s.client.Call(ctx, path, opts, out)
}

// FetchWithRetry is Fetch with the RT-CV retry policy applied.
func (s *Server) FetchWithRetry(ctx context.Context, path string, opts FetchOptions, out any) error {
	return s.client.CallWithRetry(ctx, path, opts, out)
}

// Health checks that RT-CV is up.
func (s *Server) Health(ctx context.Context) error {
	return s.FetchWithRetry(ctx, "/api/v1/health", FetchOptions{}, nil)
}

// GetUsers returns the login users of this key in random order.
func (s *Server) GetUsers(ctx context.Context, mustBeAtLeastOneUser bool) ([]LoginUser, error) {
	var resp struct {
		Users []LoginUser `json:"users"`
	}
	if err := s.FetchWithRetry(ctx, "/api/v1/scraperUsers", FetchOptions{}, &resp); err != nil {
		return nil, err
	}
	users := resp.Users

	if len(users) == 0 {
		if mustBeAtLeastOneUser {
			return nil, ErrNoLoginUsers
		}
		return users, nil
	}

	withoutPassword := 0
	for _, u := range users {
		if u.Password == "" {
			withoutPassword++
		}
	}
	if withoutPassword == len(users) {
		return nil, ErrDeprecatedUserEncryption
	}

	rand.Shuffle(len(users), func(i, j int) {
		users[i], users[j] = users[j], users[i]
	})
	return users, nil
}

// ReportLoginSuccess tells RT-CV a login with username worked.
func (s *Server) ReportLoginSuccess(ctx context.Context, username string) {
	s.ReportLoginAttempt(ctx, username, true)
}

// ReportLoginFailure tells RT-CV a login with username failed.
func (s *Server) ReportLoginFailure(ctx context.Context, username string) {
	s.ReportLoginAttempt(ctx, username, false)
}

// ReportLoginAttempt reports a login attempt to RT-CV and the alternative
// server. Failures are logged only.
func (s *Server) ReportLoginAttempt(ctx context.Context, username string, success bool) {
	s.mirror("reportLoginAttempt", func(ctx context.Context, alt *Server) error {
		return alt.reportLoginAttempt(ctx, username, success)
	})
	if err := s.reportLoginAttempt(ctx, username, success); err != nil {
		s.logger.Warn("failed to report login attempt",
			zap.String("username", username),
			zap.Bool("success", success),
			zap.Error(err),
		)
	}
}

func (s *Server) reportLoginAttempt(ctx context.Context, username string, success bool) error {
	return s.FetchWithRetry(ctx, "/api/v1/scraperUsers/reportLoginAttempt", FetchOptions{
		Method: http.MethodPost,
		Body: map[string]any{
			"username": username,
			"success":  success,
		},
	}, nil)
}

// GetSiteStorageCredentials returns the stored site cookies of this key,
// split by validity.
func (s *Server) GetSiteStorageCredentials(ctx context.Context) (SiteStorageCredentials, error) {
	var raw json.RawMessage
	path := "/api/v1/siteStorageCredentials/scraper/" + url.PathEscape(s.apiKeyID)
	if err := s.FetchWithRetry(ctx, path, FetchOptions{}, &raw); err != nil {
		return SiteStorageCredentials{}, err
	}

	var all []SiteStorageCredential
	if err := json.Unmarshal(raw, &all); err != nil {
		return SiteStorageCredentials{}, fmt.Errorf("%w for site credentials, expected array but got %s",
			ErrUnexpectedResponse, strings.TrimSpace(string(raw)))
	}

	out := SiteStorageCredentials{All: all}
	for _, c := range all {
		if c.HiddenCredentials {
			return SiteStorageCredentials{}, ErrHiddenCredentials
		}
		if c.Invalid {
			out.Invalid = append(out.Invalid, c)
		} else {
			out.Valid = append(out.Valid, c)
		}
	}
	return out, nil
}

// InvalidateSiteStorageCredential marks a credential as invalid.
func (s *Server) InvalidateSiteStorageCredential(ctx context.Context, c SiteStorageCredential) (SiteStorageCredential, error) {
	return s.patchSiteStorageCredential(ctx, c.ID, "invalidate")
}

// ValidateSiteStorageCredential marks a credential as valid again.
func (s *Server) ValidateSiteStorageCredential(ctx context.Context, c SiteStorageCredential) (SiteStorageCredential, error) {
	return s.patchSiteStorageCredential(ctx, c.ID, "validate")
}

func (s *Server) patchSiteStorageCredential(ctx context.Context, id, action string) (SiteStorageCredential, error) {
	var out SiteStorageCredential
	path := "/api/v1/siteStorageCredentials/" + url.PathEscape(id) + "/" + action
	if err := s.FetchWithRetry(ctx, path, FetchOptions{Method: http.MethodPatch}, &out); err != nil {
		return SiteStorageCredential{}, err
	}
	return out, nil
}

// CvHasMatches asks RT-CV whether a (possibly partial) CV matches any
// profile, without storing it.
func (s *Server) CvHasMatches(ctx context.Context, c cv.CV) (bool, error) {
	if err := cv.Validate(c); err != nil {
		return false, err
	}
	var resp struct {
		HasMatches bool `json:"hasMatches"`
	}
	err := s.FetchWithRetry(ctx, "/api/v1/scraper/dryScanCV", FetchOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"cv": c},
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.HasMatches, nil
}

// SendCV submits a scraped CV. It waits for the liveness and throttle gates
// and validates the CV first. When RT-CV rejects the phone number or email
// of the candidate, the CV is resubmitted once without them.
func (s *Server) SendCV(ctx context.Context, c cv.CV) error {
	return s.sendCV(ctx, c, true)
}

func (s *Server) sendCV(ctx context.Context, c cv.CV, gated bool) error {
	if gated && !s.isAlternative {
		if err := s.Alive(ctx); err != nil {
			return err
		}
		if err := s.throttle(ctx); err != nil {
			return err
		}
		if err := cv.Validate(c); err != nil {
			return err
		}
	}

	mirrored := c.Clone()
	s.mirror("sendCv", func(ctx context.Context, alt *Server) error {
		return alt.sendCV(ctx, mirrored, false)
	})

	err := s.submitCV(ctx, c)
	if err == nil {
		return nil
	}
	sanitized, ok := sanitizeCV(c, err)
	if !ok {
		return err
	}
	s.logger.Info("resubmitting cv without rejected personal details",
		zap.String("reference_number", c.ReferenceNumber),
		zap.Error(err),
	)
	metrics.ObserveResubmission()
	return s.submitCV(ctx, sanitized)
}

func (s *Server) submitCV(ctx context.Context, c cv.CV) error {
	err := s.FetchWithRetry(ctx, "/api/v1/scraper/scanCV", FetchOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"cv": c},
	}, nil)
	metrics.ObserveCVSent("cv", err)
	if err != nil {
		return err
	}
	s.markSent()
	return nil
}

// sanitizeCV strips the personal details RT-CV complained about. It reports
// false when nothing could be stripped.
func sanitizeCV(c cv.CV, err error) (cv.CV, bool) {
	if c.PersonalDetails == nil {
		return c, false
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		return c, false
	}

	out := c.Clone()
	altered := false
	if strings.Contains(fe.Response, "phone number") || strings.Contains(fe.Response, "phonenumber") {
		out.PersonalDetails.PhoneNumber = ""
		altered = true
	}
	if strings.Contains(fe.Response, "email") {
		out.PersonalDetails.Email = ""
		altered = true
	}
	return out, altered
}

// SendCVsList submits a list of CVs, reduced to the fields RT-CV needs for
// lists. With preValidation every CV is validated before anything is sent.
func (s *Server) SendCVsList(ctx context.Context, cvs []cv.CV, preValidation bool) error {
	if preValidation {
		for _, c := range cvs {
			if err := cv.Validate(c); err != nil {
				return err
			}
		}
	}

	reduced := make([]cv.CV, len(cvs))
	for i, c := range cvs {
		reduced[i] = c.ListEntry()
	}

	s.mirror("sendCvsList", func(ctx context.Context, alt *Server) error {
		return alt.SendCVsList(ctx, reduced, false)
	})

	err := s.FetchWithRetry(ctx, "/api/v1/scraper/allCVs", FetchOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"cvs": reduced},
	}, nil)
	metrics.ObserveCVSent("list", err)
	return err
}

// SendCVDocument uploads a CV document with its metadata. The alternative
// server only receives the document after RT-CV accepted it.
func (s *Server) SendCVDocument(ctx context.Context, metadata cv.CV, doc Document) error {
	if !s.isAlternative {
		if err := s.Alive(ctx); err != nil {
			return err
		}
		if err := s.throttle(ctx); err != nil {
			return err
		}
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode cv metadata: %w", err)
	}
	form := NewForm()
	form.Set("metadata", string(encoded))
	form.SetFile("cv", cv.FormatFilename(doc.Filename, doc.MimeType), doc.MimeType, doc.Data)

	const path = "/api/v1/scraper/scanCVDocument"
	req := FetchOptions{Method: http.MethodPost, Body: form}

	err = s.FetchWithRetry(ctx, path, req, nil)
	metrics.ObserveCVSent("document", err)
	if err != nil {
		return err
	}
	s.markSent()

	if s.alternative != nil {
		if err := s.alternative.Fetch(ctx, path, req, nil); err != nil {
			s.recordMirrorFailure("sendCvDocument", err)
		}
	}
	return nil
}

// CandidateRequestPersonalDetails asks RT-CV for the candidate behind a
// reference number, creating it when needed.
func (s *Server) CandidateRequestPersonalDetails(ctx context.Context, referenceNr string) (CandidateResponse, error) {
	var out CandidateResponse
	err := s.Fetch(ctx, "/api/v1/candidates", FetchOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"referenceNr": referenceNr},
	}, &out)
	if err != nil {
		return CandidateResponse{}, err
	}
	return out, nil
}

// CvVisit looks up an earlier visit of a CV. It returns nil without an error
// when the CV was never visited.
func (s *Server) CvVisit(ctx context.Context, referenceNr string) (*VisitedCv, error) {
	var out VisitedCv
	err := s.Fetch(ctx, "/api/v1/visitedCvs/byReference/"+url.PathEscape(referenceNr), FetchOptions{}, &out)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && strings.Contains(strings.ToLower(fe.Response), "no documents in result") {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// GetActiveProfiles returns the search profiles currently active on RT-CV.
func (s *Server) GetActiveProfiles(ctx context.Context) ([]Profile, error) {
	var out []Profile
	if err := s.FetchWithRetry(ctx, "/api/v1/profiles/active", FetchOptions{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) setSlug(ctx context.Context) {
	s.logger.Info("setting slug in RT-CV", zap.String("slug", s.slug))

	var resp slugResponse
	err := s.FetchWithRetry(ctx, "/api/v1/scraper/setSlug", FetchOptions{
		Method: http.MethodPut,
		Body:   map[string]string{"slug": s.slug},
	}, &resp)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("failed to set slug", zap.Error(err))
		}
		return
	}
	if resp.OverwroteExisting {
		s.logger.Warn("overwrote existing slug",
			zap.String("old_slug", resp.OldSlug),
			zap.String("slug", resp.Slug),
		)
	}
}
