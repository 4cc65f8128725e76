// Package provider defines the screening provider contract consumed by the
// check workflow, plus the HTTP and mock implementations. The concrete
// provider is pluggable; the core treats every failure here uniformly.
package provider

import (
	"context"
	"time"

	"vetgate/internal/intake"
)

// CreateRequest is the submission payload sent to the provider.
type CreateRequest struct {
	PackageID string
	Candidate intake.Candidate
}

// CreateResult is what the provider returns on a successful submission.
// ReportURL is usually empty at this point and arrives with a later status pull.
type CreateResult struct {
	RequestID string
	ReportURL string
}

// TimelineEntry is a provider-side event included in a status snapshot.
type TimelineEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// StatusSnapshot is the provider's current view of a screening request.
// Code is provider-native vocabulary; the check service owns the mapping into
// local statuses.
type StatusSnapshot struct {
	Code      string          `json:"status"`
	ReportURL string          `json:"report_url,omitempty"`
	Events    []TimelineEntry `json:"events,omitempty"`
}

// Client is the outbound contract to the screening provider. Both calls are
// bounded by timeouts and safe to retry: CreateRequest is only retried before
// any local record exists, and PullStatus is a read.
type Client interface {
	CreateRequest(ctx context.Context, req CreateRequest) (CreateResult, error)
	PullStatus(ctx context.Context, requestID string) (StatusSnapshot, error)
}
