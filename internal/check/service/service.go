// Package service orchestrates the background check workflow: submission
// gating, provider calls, and status synchronization.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"vetgate/internal/catalog"
	"vetgate/internal/check/metrics"
	"vetgate/internal/check/models"
	"vetgate/internal/check/ports"
	"vetgate/internal/consent"
	"vetgate/internal/intake"
	"vetgate/internal/platform/lock"
	"vetgate/internal/provider"
	"vetgate/pkg/domain"
	dErrors "vetgate/pkg/domain-errors"
	"vetgate/pkg/platform/audit"
	"vetgate/pkg/platform/sentinel"
	"vetgate/pkg/requestcontext"
)

// SubmitInput carries everything needed to initiate a background check. The
// candidate payload is forwarded to the provider and never persisted locally.
type SubmitInput struct {
	ApplicationID domain.ApplicationID
	PackageID     string
	Candidate     intake.Candidate
	Consent       consent.Record
}

// Service is the background check orchestrator.
type Service struct {
	store       ports.CheckStore
	catalog     ports.Catalog
	integration ports.IntegrationConfig
	provider    ports.ProviderClient
	validator   *intake.Validator
	locks       lock.Keyed

	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	// refreshGroup collapses concurrent refreshes of the same check into a
	// single provider pull.
	refreshGroup singleflight.Group
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service. All positional dependencies are required.
func New(
	store ports.CheckStore,
	cat ports.Catalog,
	integration ports.IntegrationConfig,
	providerClient ports.ProviderClient,
	validator *intake.Validator,
	locks lock.Keyed,
	opts ...Option,
) (*Service, error) {
	if store == nil || cat == nil || integration == nil || providerClient == nil || validator == nil || locks == nil {
		return nil, errors.New("check service: all dependencies are required")
	}
	s := &Service{
		store:       store,
		catalog:     cat,
		integration: integration,
		provider:    providerClient,
		validator:   validator,
		locks:       locks,
		logger:      slog.Default(),
		tracer:      otel.Tracer("vetgate/check"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit initiates a background check for an application. Preconditions are
// evaluated in a fixed order so callers see the most actionable error first:
// provider integration, consent, package, candidate validation, and finally
// the one-active-check rule. Submission is idempotent per application; a
// repeat submit while a check is pending returns the existing check.
//
// The provider call happens before any local record exists, so a provider
// failure leaves no partial state and the submission is safely retryable.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*models.BackgroundCheck, bool, error) {
	ctx, span := s.tracer.Start(ctx, "check.Submit",
		trace.WithAttributes(attribute.String("application_id", input.ApplicationID.String())))
	defer span.End()

	now := requestcontext.Now(ctx)

	if !s.integration.Configured() {
		s.metrics.IncrementSubmission("rejected")
		return nil, false, dErrors.New(dErrors.CodeIntegrationNotConfigured,
			"screening provider integration is not configured")
	}
	if err := consent.Ensure(input.Consent, now); err != nil {
		s.metrics.IncrementSubmission("rejected")
		return nil, false, err
	}
	pkg, ok := s.catalog.Get(catalog.PackageID(input.PackageID))
	if !ok {
		s.metrics.IncrementSubmission("rejected")
		return nil, false, dErrors.New(dErrors.CodeUnknownPackage,
			"unknown screening package: "+input.PackageID)
	}
	if err := s.validator.Validate(input.Candidate, pkg.Tier); err != nil {
		s.metrics.IncrementSubmission("rejected")
		return nil, false, err
	}

	// Serialize submissions per application. The store's uniqueness rule is
	// the backstop; the lock keeps the common path free of provider calls
	// that would be discarded.
	release, err := s.locks.Acquire(ctx, "submit:"+input.ApplicationID.String())
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire submission lock")
	}
	defer release()

	if existing, err := s.findActive(ctx, input.ApplicationID); err != nil {
		return nil, false, err
	} else if existing != nil {
		s.metrics.IncrementSubmission("existing")
		return existing, false, nil
	}

	result, err := s.createWithProvider(ctx, pkg.ID, input.Candidate)
	if err != nil {
		s.metrics.IncrementSubmission("provider_error")
		return nil, false, err
	}

	stamped := consent.Stamp(input.Consent, now)
	check := &models.BackgroundCheck{
		ID:                domain.NewCheckID(),
		ApplicationID:     input.ApplicationID,
		PackageID:         string(pkg.ID),
		ProviderRequestID: result.RequestID,
		ProviderReportURL: result.ReportURL,
		Status:            models.StatusPending,
		ConsentAffirmedBy: stamped.AffirmedBy,
		ConsentAffirmedAt: stamped.AffirmedAt,
		InitiatedAt:       now,
		Version:           1,
	}
	check.AppendEvent(now, "background check submitted")

	if err := s.store.Create(ctx, check); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race despite the lock (for example two instances without
			// a shared lock backend). The stored check wins; the provider
			// request created here is orphaned and expires provider-side.
			if existing, findErr := s.findActive(ctx, input.ApplicationID); findErr == nil && existing != nil {
				s.metrics.IncrementSubmission("existing")
				return existing, false, nil
			}
			return nil, false, dErrors.New(dErrors.CodeConflict,
				"an active check already exists for this application")
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist check")
	}

	s.metrics.IncrementSubmission("created")
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Category:      audit.CategoryCompliance,
		Timestamp:     now,
		Action:        audit.ActionCheckSubmitted,
		CheckID:       check.ID.String(),
		ApplicationID: check.ApplicationID.String(),
		ActorID:       stamped.AffirmedBy,
	}, "package_id", check.PackageID)

	return check, true, nil
}

// Refresh pulls the provider's current status and synchronizes the local
// record. Refreshing a terminal check is a no-op returning the stored record.
// Concurrent refreshes of one check collapse into a single provider pull.
func (s *Service) Refresh(ctx context.Context, id domain.CheckID) (*models.BackgroundCheck, error) {
	ctx, span := s.tracer.Start(ctx, "check.Refresh",
		trace.WithAttributes(attribute.String("check_id", id.String())))
	defer span.End()

	result, err, _ := s.refreshGroup.Do(id.String(), func() (any, error) {
		return s.refresh(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.BackgroundCheck), nil
}

func (s *Service) refresh(ctx context.Context, id domain.CheckID) (*models.BackgroundCheck, error) {
	check, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if check.Status.IsTerminal() {
		return check, nil
	}

	now := requestcontext.Now(ctx)

	start := time.Now()
	snapshot, err := s.provider.PullStatus(ctx, check.ProviderRequestID)
	s.metrics.ObserveProviderLatency("pull_status", time.Since(start))
	if err != nil {
		s.metrics.IncrementRefresh("provider_error")
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Category:      audit.CategoryOperations,
			Timestamp:     now,
			Action:        audit.ActionCheckRefreshFailed,
			CheckID:       check.ID.String(),
			ApplicationID: check.ApplicationID.String(),
			Reason:        string(provider.CategoryOf(err)),
		})
		return nil, dErrors.Wrap(err, dErrors.CodeProviderUnavailable,
			"screening provider is unavailable")
	}

	target, known := mapProviderCode(snapshot.Code)
	if !known {
		s.metrics.IncrementRefresh("unknown_code")
		s.logger.WarnContext(ctx, "unknown provider status code, check stays pending",
			"check_id", check.ID,
			"provider_code", snapshot.Code,
		)
		target = models.StatusPending
	}

	changed := s.applySnapshot(check, snapshot, now)
	previous := check.Status

	if target.IsTerminal() {
		if err := check.TransitionTo(target, now); err != nil {
			return nil, err
		}
		check.AppendEvent(now, "status changed to "+string(target))
		changed = true
	}

	if !changed {
		s.metrics.IncrementRefresh("unchanged")
		s.logger.DebugContext(ctx, "refresh found no change",
			"check_id", check.ID, "provider_code", snapshot.Code)
		return check, nil
	}

	check.Version++
	if err := s.store.Update(ctx, check); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict,
				"check was modified concurrently, retry the refresh")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist check update")
	}

	if check.Status != previous {
		s.metrics.IncrementRefresh("transitioned")
		s.metrics.IncrementOutcome(string(check.Status))
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Category:      audit.CategoryCompliance,
			Timestamp:     now,
			Action:        audit.ActionCheckStatusChanged,
			CheckID:       check.ID.String(),
			ApplicationID: check.ApplicationID.String(),
			Reason:        "provider reported " + snapshot.Code,
		}, "from", previous, "to", check.Status)
	} else {
		s.metrics.IncrementRefresh("updated")
	}

	return check, nil
}

// applySnapshot folds provider-side progress into the local record and reports
// whether anything new arrived. Timeline entries already recorded are skipped;
// the timeline only ever grows.
func (s *Service) applySnapshot(check *models.BackgroundCheck, snapshot provider.StatusSnapshot, now time.Time) bool {
	changed := false

	if snapshot.ReportURL != "" && snapshot.ReportURL != check.ProviderReportURL {
		check.ProviderReportURL = snapshot.ReportURL
		changed = true
	}

	seen := make(map[string]bool, len(check.Timeline))
	for _, e := range check.Timeline {
		seen[e.Timestamp.UTC().Format(time.RFC3339Nano)+"|"+e.Description] = true
	}
	for _, e := range snapshot.Events {
		key := e.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + e.Description
		if seen[key] {
			continue
		}
		check.AppendEvent(e.Timestamp, e.Description)
		seen[key] = true
		changed = true
	}

	return changed
}

// Get returns a check by ID.
func (s *Service) Get(ctx context.Context, id domain.CheckID) (*models.BackgroundCheck, error) {
	check, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "check not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check")
	}
	return check, nil
}

// GetByApplication returns the most recent check for an application.
func (s *Service) GetByApplication(ctx context.Context, appID domain.ApplicationID) (*models.BackgroundCheck, error) {
	check, err := s.store.FindByApplication(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no check exists for this application")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check")
	}
	return check, nil
}

// RefreshPending refreshes up to limit non-terminal checks. The poller calls
// this on a schedule; failures on individual checks are logged and do not
// abort the sweep.
func (s *Service) RefreshPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.store.FindPending(ctx, limit)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending checks")
	}

	refreshed := 0
	for _, check := range pending {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := s.Refresh(ctx, check.ID); err != nil {
			s.logger.WarnContext(ctx, "poller refresh failed",
				"check_id", check.ID, "error", err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *Service) findActive(ctx context.Context, appID domain.ApplicationID) (*models.BackgroundCheck, error) {
	existing, err := s.store.FindActiveByApplication(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up active check")
	}
	return existing, nil
}

func (s *Service) createWithProvider(ctx context.Context, pkgID catalog.PackageID, candidate intake.Candidate) (provider.CreateResult, error) {
	start := time.Now()
	result, err := s.provider.CreateRequest(ctx, provider.CreateRequest{
		PackageID: string(pkgID),
		Candidate: candidate,
	})
	s.metrics.ObserveProviderLatency("create", time.Since(start))
	if err != nil {
		return provider.CreateResult{}, dErrors.Wrap(err, dErrors.CodeProviderUnavailable,
			"screening provider rejected or did not answer the submission")
	}
	return result, nil
}
