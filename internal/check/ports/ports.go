// Package ports defines the interfaces the check service depends on. They are
// declared here rather than on the implementations to keep the service
// testable against mocks and free of infrastructure imports.
package ports

import (
	"context"
	"log/slog"

	"vetgate/internal/catalog"
	"vetgate/internal/check/models"
	"vetgate/internal/provider"
	"vetgate/pkg/domain"
	"vetgate/pkg/platform/audit"
	"vetgate/pkg/requestcontext"
)

//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks

// CheckStore persists background checks.
//
// Create must reject a second active (pending) check for the same application
// with sentinel.ErrConflict. Update must apply status, report URL, timeline,
// and CompletedAt atomically, guarded by the record's Version; a stale version
// returns sentinel.ErrConflict.
type CheckStore interface {
	Create(ctx context.Context, check *models.BackgroundCheck) error
	FindByID(ctx context.Context, id domain.CheckID) (*models.BackgroundCheck, error)
	FindByApplication(ctx context.Context, appID domain.ApplicationID) (*models.BackgroundCheck, error)
	FindActiveByApplication(ctx context.Context, appID domain.ApplicationID) (*models.BackgroundCheck, error)
	FindPending(ctx context.Context, limit int) ([]*models.BackgroundCheck, error)
	Update(ctx context.Context, check *models.BackgroundCheck) error
}

// Catalog resolves screening packages offered to operators.
type Catalog interface {
	Get(id catalog.PackageID) (catalog.ScreeningPackage, bool)
	List() []catalog.ScreeningPackage
}

// IntegrationConfig reports whether the provider connection can accept work.
type IntegrationConfig interface {
	Configured() bool
}

// ProviderClient is the outbound screening provider contract.
type ProviderClient = provider.Client

// AuditPublisher emits compliance audit events to the durable audit stream.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit writes an audit event to the structured logger and, when a
// publisher is wired, to the audit stream. Publish failures are logged and
// swallowed; audit delivery never fails the business operation.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event, attrs ...any) {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.OperatorID(ctx)
	}

	args := append(attrs,
		"event", event.Action,
		"check_id", event.CheckID,
		"application_id", event.ApplicationID,
		"log_type", "audit",
	)
	if event.RequestID != "" {
		args = append(args, "request_id", event.RequestID)
	}

	if logger != nil {
		logger.InfoContext(ctx, event.Action, args...)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}
