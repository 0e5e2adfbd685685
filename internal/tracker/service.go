// Package tracker ties canonicalization, identity resolution and storage
// together into the operations every jobtrack surface calls.
package tracker

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/jobtrack/internal/apperr"
	"github.com/runnerr0/jobtrack/internal/canonical"
	"github.com/runnerr0/jobtrack/internal/identity"
	"github.com/runnerr0/jobtrack/internal/storage"
)

// Options tune capture behaviour.
type Options struct {
	// DefaultStatus is given to new jobs tracked without a status.
	DefaultStatus storage.Status
	// AutofillFromTitle fills a missing title or company from the page title.
	AutofillFromTitle bool
}

// Service records and looks up tracked jobs.
type Service struct {
	store    storage.Store
	resolver *identity.Resolver
	logger   *zap.Logger
	opts     Options
	now      func() time.Time
}

// NewService returns a Service over store. A nil logger discards logs.
func NewService(store storage.Store, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = storage.StatusInterested
	}
	return &Service{
		store:    store,
		resolver: identity.NewResolver(nil),
		logger:   logger,
		opts:     opts,
		now:      time.Now,
	}
}

// TrackRequest describes a job capture. Empty fields keep whatever the
// stored record already has.
type TrackRequest struct {
	URL       string
	Title     string
	Company   string
	Location  string
	PageTitle string
	Status    string
	Notes     string
	Tags      []string
}

// Identity is what a URL resolves to before anything is stored.
type Identity struct {
	CanonicalURL string `json:"canonical_url"`
	Source       string `json:"source"`
	JobKey       string `json:"job_key"`
}

// Identify resolves rawURL without touching the store.
func (s *Service) Identify(rawURL string, meta identity.Metadata) (*Identity, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, apperr.InvalidInput("a URL is required", nil)
	}
	key, err := s.resolver.Resolve(rawURL, meta)
	if err != nil {
		return nil, err
	}
	return &Identity{
		CanonicalURL: canonical.Canonicalize(rawURL),
		Source:       identity.DetectSource(rawURL),
		JobKey:       key,
	}, nil
}

// Track saves the job at req.URL, merging with any record already stored
// under the same key.
func (s *Service) Track(ctx context.Context, req TrackRequest) (*storage.Job, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, apperr.InvalidInput("a URL is required", nil)
	}

	var status storage.Status
	if req.Status != "" {
		st, err := storage.ParseStatus(req.Status)
		if err != nil {
			return nil, apperr.InvalidInput("unknown status", err)
		}
		status = st
	}

	source := identity.DetectSource(rawURL)
	title := strings.TrimSpace(req.Title)
	company := strings.TrimSpace(req.Company)
	location := strings.TrimSpace(req.Location)

	if s.opts.AutofillFromTitle && req.PageTitle != "" && (title == "" || company == "") {
		guess := identity.GuessFromPageTitle(req.PageTitle, source)
		if title == "" {
			title = guess.Title
		}
		if company == "" {
			company = guess.Company
		}
		if location == "" {
			location = guess.Location
		}
		s.logger.Debug("autofilled from page title",
			zap.String("page_title", req.PageTitle),
			zap.String("title", title),
			zap.String("company", company),
		)
	}

	key, err := s.resolver.Resolve(rawURL, identity.Metadata{Title: title, Company: company})
	if err != nil {
		s.logger.Error("resolve job key", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}

	existing, found, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, StoreError("could not load job", err)
	}

	job := &storage.Job{JobKey: key, Status: s.opts.DefaultStatus}
	if found {
		job = existing
	}
	job.OriginalURL = rawURL
	job.Source = source
	if title != "" {
		job.Title = title
	}
	if company != "" {
		job.Company = company
	}
	if location != "" {
		job.Location = location
	}
	if status != "" {
		job.Status = status
	}
	if req.Notes != "" {
		job.Notes = req.Notes
	}
	if req.Tags != nil {
		job.Tags = req.Tags
	}

	saved, err := s.store.Upsert(ctx, job)
	if err != nil {
		return nil, StoreError("could not save job", err)
	}

	s.logger.Info("job tracked",
		zap.String("job_key", saved.JobKey),
		zap.String("source", saved.Source),
		zap.String("canonical_url", saved.CanonicalURL),
		zap.String("status", string(saved.Status)),
		zap.Bool("existed", found),
	)
	return saved, nil
}

// Check reports whether rawURL is a job already tracked and, if so, records
// that it was seen again. Lookup is by canonical URL, then by platform key
// so a board URL with a different path still matches.
func (s *Service) Check(ctx context.Context, rawURL string) (*storage.Job, bool, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, false, apperr.InvalidInput("a URL is required", nil)
	}
	canon := canonical.Canonicalize(rawURL)

	job, found, err := s.store.FindByCanonicalURL(ctx, canon)
	if err != nil {
		return nil, false, StoreError("could not look up URL", err)
	}

	if !found {
		key, err := s.resolver.Resolve(rawURL, identity.Metadata{})
		if err != nil {
			return nil, false, err
		}
		if !identity.IsHashKey(key) {
			job, found, err = s.store.Get(ctx, key)
			if err != nil {
				return nil, false, StoreError("could not load job", err)
			}
		}
	}

	if !found {
		s.logger.Debug("url not tracked", zap.String("canonical_url", canon))
		return nil, false, nil
	}

	seen := s.now().UTC()
	job.LastSeenAt = &seen
	saved, err := s.store.Upsert(ctx, job)
	if err != nil {
		return nil, false, StoreError("could not save job", err)
	}

	s.logger.Info("revisit detected",
		zap.String("job_key", saved.JobKey),
		zap.String("source", saved.Source),
		zap.String("canonical_url", saved.CanonicalURL),
	)
	return saved, true, nil
}

// Job returns the job stored under key.
func (s *Service) Job(ctx context.Context, key string) (*storage.Job, error) {
	job, found, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, StoreError("could not load job", err)
	}
	if !found {
		return nil, apperr.NotFound("no job with key "+key, nil)
	}
	return job, nil
}

// SetStatus moves the job under key to status.
func (s *Service) SetStatus(ctx context.Context, key, status string) (*storage.Job, error) {
	st, err := storage.ParseStatus(status)
	if err != nil {
		return nil, apperr.InvalidInput("unknown status", err)
	}

	job, err := s.Job(ctx, key)
	if err != nil {
		return nil, err
	}
	from := job.Status
	job.Status = st

	saved, err := s.store.Upsert(ctx, job)
	if err != nil {
		return nil, StoreError("could not save job", err)
	}

	s.logger.Info("status changed",
		zap.String("job_key", key),
		zap.String("from", string(from)),
		zap.String("to", string(st)),
	)
	return saved, nil
}

// ClearApplied removes the applied timestamp from the job under key.
func (s *Service) ClearApplied(ctx context.Context, key string) (*storage.Job, error) {
	job, err := s.Job(ctx, key)
	if err != nil {
		return nil, err
	}
	job.ClearAppliedAt = true

	saved, err := s.store.Upsert(ctx, job)
	if err != nil {
		return nil, StoreError("could not save job", err)
	}
	s.logger.Info("applied date cleared", zap.String("job_key", key))
	return saved, nil
}

// Delete removes the job under key and reports whether it existed.
func (s *Service) Delete(ctx context.Context, key string) (bool, error) {
	deleted, err := s.store.Delete(ctx, key)
	if err != nil {
		return false, StoreError("could not delete job", err)
	}
	if deleted {
		s.logger.Info("job deleted", zap.String("job_key", key))
	}
	return deleted, nil
}

// StoreError classifies a storage error for the user.
func StoreError(message string, err error) error {
	switch {
	case errors.Is(err, storage.ErrDuplicateCanonicalURL):
		return apperr.Integrity("this URL is stored under more than one job", err)
	case errors.Is(err, storage.ErrInvalidStatus),
		errors.Is(err, storage.ErrInvalidTheme),
		errors.Is(err, storage.ErrInvalidSort),
		errors.Is(err, storage.ErrMissingJobKey),
		errors.Is(err, storage.ErrMissingURL):
		return apperr.InvalidInput(message, err)
	}
	return apperr.Internal(message, err)
}

