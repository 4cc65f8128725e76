package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vetgate/internal/catalog"
	"vetgate/internal/check/mocks"
	"vetgate/internal/check/models"
	"vetgate/internal/check/store"
	"vetgate/internal/consent"
	"vetgate/internal/intake"
	integrationcfg "vetgate/internal/integration"
	"vetgate/internal/platform/config"
	"vetgate/internal/platform/lock"
	"vetgate/internal/provider"
	"vetgate/pkg/domain"
	dErrors "vetgate/pkg/domain-errors"
	"vetgate/pkg/platform/audit"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *store.Memory
	provider *mocks.MockProviderClient
	audits   *audit.MemoryPublisher
	svc      *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewMemory()
	s.provider = mocks.NewMockProviderClient(s.ctrl)
	s.audits = audit.NewMemoryPublisher()
	s.ctx = context.Background()

	svc, err := New(
		s.store,
		catalog.SeedDefault(),
		integrationcfg.NewSettings(config.ProviderConfig{
			BaseURL: "https://screening.example.com",
			APIKey:  "key-123",
		}, false),
		s.provider,
		intake.NewValidator(),
		lock.NewMemory(),
		WithAuditPublisher(s.audits),
	)
	s.Require().NoError(err)
	s.svc = svc
}

// unconfiguredService builds a service whose provider integration is absent.
func (s *ServiceSuite) unconfiguredService() *Service {
	svc, err := New(
		s.store,
		catalog.SeedDefault(),
		integrationcfg.NewSettings(config.ProviderConfig{}, false),
		s.provider,
		intake.NewValidator(),
		lock.NewMemory(),
	)
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) appID(raw string) domain.ApplicationID {
	id, err := domain.ParseApplicationID(raw)
	s.Require().NoError(err)
	return id
}

func validInput(appID domain.ApplicationID) SubmitInput {
	return SubmitInput{
		ApplicationID: appID,
		PackageID:     "basic",
		Candidate: intake.Candidate{
			FullName:    "Jordan Michaels",
			Email:       "jordan.michaels@example.com",
			Phone:       "+1 415 555 2671",
			DateOfBirth: "1991-04-17",
			NationalID:  "523-88-1204",
		},
		Consent: consent.Record{
			Obtained:   true,
			AffirmedBy: "operator-7",
		},
	}
}

func (s *ServiceSuite) expectCreate(requestID string) {
	s.provider.EXPECT().
		CreateRequest(gomock.Any(), gomock.Any()).
		Return(provider.CreateResult{RequestID: requestID}, nil)
}

// ============================================================================
// Submit preconditions
// ============================================================================

func (s *ServiceSuite) TestSubmitPreconditionOrder() {
	appID := s.appID("0d4f3f4d-9f8e-4f7a-8a6e-1f2b3c4d5e6f")

	s.Run("missing integration wins over everything else", func() {
		// Justification: the input below also lacks consent and names an
		// unknown package; the integration error must still come first so the
		// operator fixes setup before anything else.
		input := validInput(appID)
		input.PackageID = "nonexistent"
		input.Consent = consent.Record{}

		_, _, err := s.unconfiguredService().Submit(s.ctx, input)
		s.True(dErrors.HasCode(err, dErrors.CodeIntegrationNotConfigured))
	})

	s.Run("consent before package resolution", func() {
		input := validInput(appID)
		input.PackageID = "nonexistent"
		input.Consent = consent.Record{}

		_, _, err := s.svc.Submit(s.ctx, input)
		s.True(dErrors.HasCode(err, dErrors.CodeConsentRequired))
	})

	s.Run("unknown package before validation", func() {
		input := validInput(appID)
		input.PackageID = "nonexistent"
		input.Candidate.Email = "not-an-email"

		_, _, err := s.svc.Submit(s.ctx, input)
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownPackage))
	})

	s.Run("validation failure is field scoped", func() {
		input := validInput(appID)
		input.Candidate.Email = "not-an-email"

		_, _, err := s.svc.Submit(s.ctx, input)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("email", dErrors.FieldOf(err))
	})

	s.Run("tier requirements apply to the selected package", func() {
		input := validInput(appID)
		input.PackageID = "standard"

		_, _, err := s.svc.Submit(s.ctx, input)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("driver_license_number", dErrors.FieldOf(err))
	})
}

// ============================================================================
// Submit happy path and idempotency
// ============================================================================

func (s *ServiceSuite) TestSubmit() {
	appID := s.appID("0d4f3f4d-9f8e-4f7a-8a6e-1f2b3c4d5e6f")

	s.Run("creates a pending check with consent stamped", func() {
		s.expectCreate("req-100")

		check, created, err := s.svc.Submit(s.ctx, validInput(appID))
		s.Require().NoError(err)
		s.True(created)
		s.Equal(models.StatusPending, check.Status)
		s.Equal("req-100", check.ProviderRequestID)
		s.Equal("operator-7", check.ConsentAffirmedBy)
		s.False(check.ConsentAffirmedAt.IsZero())
		s.Require().Len(check.Timeline, 1)
		s.Equal("background check submitted", check.Timeline[0].Description)

		// Compliance audit trail carries the submission.
		events := s.audits.Events()
		s.Require().Len(events, 1)
		s.Equal(audit.ActionCheckSubmitted, events[0].Action)
		s.Equal(check.ID.String(), events[0].CheckID)
	})

	s.Run("repeat submit returns the existing active check", func() {
		s.expectCreate("req-101")
		appID := s.appID("11111111-1111-4111-8111-111111111111")

		first, created, err := s.svc.Submit(s.ctx, validInput(appID))
		s.Require().NoError(err)
		s.True(created)

		// No provider expectation here: the second submit must not reach the
		// provider at all.
		second, created, err := s.svc.Submit(s.ctx, validInput(appID))
		s.Require().NoError(err)
		s.False(created)
		s.Equal(first.ID, second.ID)
	})

	s.Run("provider failure leaves no record and is retryable", func() {
		appID := s.appID("22222222-2222-4222-8222-222222222222")
		s.provider.EXPECT().
			CreateRequest(gomock.Any(), gomock.Any()).
			Return(provider.CreateResult{}, provider.NewError(provider.ErrorTimeout, "deadline", nil))

		_, _, err := s.svc.Submit(s.ctx, validInput(appID))
		s.True(dErrors.HasCode(err, dErrors.CodeProviderUnavailable))

		_, err = s.store.FindByApplication(s.ctx, appID)
		s.Error(err, "no partial state after provider failure")

		// Retry succeeds once the provider recovers.
		s.expectCreate("req-102")
		check, created, err := s.svc.Submit(s.ctx, validInput(appID))
		s.Require().NoError(err)
		s.True(created)
		s.Equal("req-102", check.ProviderRequestID)
	})

	s.Run("re-submission allowed after a terminal outcome", func() {
		appID := s.appID("33333333-3333-4333-8333-333333333333")
		s.expectCreate("req-103")
		first, _, err := s.svc.Submit(s.ctx, validInput(appID))
		s.Require().NoError(err)

		s.provider.EXPECT().
			PullStatus(gomock.Any(), "req-103").
			Return(provider.StatusSnapshot{Code: "cancelled"}, nil)
		_, err = s.svc.Refresh(s.ctx, first.ID)
		s.Require().NoError(err)

		s.expectCreate("req-104")
		second, created, err := s.svc.Submit(s.ctx, validInput(appID))
		s.Require().NoError(err)
		s.True(created)
		s.NotEqual(first.ID, second.ID)
	})
}

func (s *ServiceSuite) TestSubmitConcurrency() {
	// Scenario: two operators submit for the same application at the same
	// time. Exactly one check may be created; the loser sees the winner's.
	appID := s.appID("44444444-4444-4444-8444-444444444444")
	s.provider.EXPECT().
		CreateRequest(gomock.Any(), gomock.Any()).
		Return(provider.CreateResult{RequestID: "req-200"}, nil).
		MaxTimes(1)

	const goroutines = 8
	var wg sync.WaitGroup
	results := make([]*models.BackgroundCheck, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = s.svc.Submit(s.ctx, validInput(appID))
		}(i)
	}
	wg.Wait()

	var firstID domain.CheckID
	for i := 0; i < goroutines; i++ {
		s.Require().NoError(errs[i])
		if firstID.IsNil() {
			firstID = results[i].ID
		}
		s.Equal(firstID, results[i].ID, "all submitters see the same check")
	}
}

// ============================================================================
// Refresh
// ============================================================================

func (s *ServiceSuite) submitPending(raw, requestID string) *models.BackgroundCheck {
	s.T().Helper()
	s.expectCreate(requestID)
	check, _, err := s.svc.Submit(s.ctx, validInput(s.appID(raw)))
	s.Require().NoError(err)
	return check
}

func (s *ServiceSuite) TestRefresh() {
	s.Run("terminal transition with report URL and audit trail", func() {
		check := s.submitPending("0d4f3f4d-9f8e-4f7a-8a6e-1f2b3c4d5e6f", "req-300")
		s.provider.EXPECT().
			PullStatus(gomock.Any(), "req-300").
			Return(provider.StatusSnapshot{
				Code:      "clear",
				ReportURL: "https://reports.example.com/req-300",
			}, nil)

		refreshed, err := s.svc.Refresh(s.ctx, check.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusComplete, refreshed.Status)
		s.Equal("https://reports.example.com/req-300", refreshed.ProviderReportURL)
		s.Require().NotNil(refreshed.CompletedAt)
		s.Equal(2, refreshed.Version)

		// Timeline records the transition.
		last := refreshed.Timeline[len(refreshed.Timeline)-1]
		s.Equal("status changed to complete", last.Description)

		events := s.audits.Events()
		s.Equal(audit.ActionCheckStatusChanged, events[len(events)-1].Action)
	})

	s.Run("provider codes collapse into local statuses", func() {
		cases := []struct {
			raw    string
			code   string
			expect models.Status
		}{
			{"11111111-1111-4111-8111-111111111111", "completed", models.StatusComplete},
			{"22222222-2222-4222-8222-222222222222", "needs_review", models.StatusConsider},
			{"33333333-3333-4333-8333-333333333333", "adverse", models.StatusConsider},
			{"44444444-4444-4444-8444-444444444444", "cancelled", models.StatusSuspended},
			{"55555555-5555-4555-8555-555555555555", "disputed_unresolved", models.StatusSuspended},
		}
		for _, tc := range cases {
			check := s.submitPending(tc.raw, "req-"+tc.code)
			s.provider.EXPECT().
				PullStatus(gomock.Any(), "req-"+tc.code).
				Return(provider.StatusSnapshot{Code: tc.code}, nil)

			refreshed, err := s.svc.Refresh(s.ctx, check.ID)
			s.Require().NoError(err)
			s.Equal(tc.expect, refreshed.Status, "provider code %s", tc.code)
		}
	})

	s.Run("in-flight code keeps the check pending and appends progress", func() {
		check := s.submitPending("66666666-6666-4666-8666-666666666666", "req-301")
		at := time.Now().UTC().Truncate(time.Second)
		s.provider.EXPECT().
			PullStatus(gomock.Any(), "req-301").
			Return(provider.StatusSnapshot{
				Code:   "in_progress",
				Events: []provider.TimelineEntry{{Timestamp: at, Description: "county search started"}},
			}, nil)

		refreshed, err := s.svc.Refresh(s.ctx, check.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, refreshed.Status)
		s.Len(refreshed.Timeline, 2)

		// The same provider event on a later pull is not duplicated.
		s.provider.EXPECT().
			PullStatus(gomock.Any(), "req-301").
			Return(provider.StatusSnapshot{
				Code:   "in_progress",
				Events: []provider.TimelineEntry{{Timestamp: at, Description: "county search started"}},
			}, nil)
		again, err := s.svc.Refresh(s.ctx, check.ID)
		s.Require().NoError(err)
		s.Len(again.Timeline, 2)
		s.Equal(refreshed.Version, again.Version, "no-change refresh writes nothing")
	})

	s.Run("unknown provider code stays pending without error", func() {
		// Scenario: the provider ships a new status code before the mapping
		// table learns it. The workflow must absorb it quietly.
		check := s.submitPending("77777777-7777-4777-8777-777777777777", "req-302")
		s.provider.EXPECT().
			PullStatus(gomock.Any(), "req-302").
			Return(provider.StatusSnapshot{Code: "quantum_flux"}, nil)

		refreshed, err := s.svc.Refresh(s.ctx, check.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, refreshed.Status)

		// Still refreshable once the provider reports a known code.
		s.provider.EXPECT().
			PullStatus(gomock.Any(), "req-302").
			Return(provider.StatusSnapshot{Code: "clear"}, nil)
		final, err := s.svc.Refresh(s.ctx, check.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusComplete, final.Status)
	})

	s.Run("provider outage surfaces as unavailable and leaves state untouched", func() {
		check := s.submitPending("88888888-8888-4888-8888-888888888888", "req-303")
		s.provider.EXPECT().
			PullStatus(gomock.Any(), "req-303").
			Return(provider.StatusSnapshot{}, provider.NewError(provider.ErrorOutage, "503", nil))

		_, err := s.svc.Refresh(s.ctx, check.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeProviderUnavailable))

		stored, err := s.store.FindByID(s.ctx, check.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, stored.Status)
		s.Equal(1, stored.Version)

		events := s.audits.Events()
		s.Equal(audit.ActionCheckRefreshFailed, events[len(events)-1].Action)
	})

	s.Run("refreshing a terminal check is a no-op", func() {
		check := s.submitPending("99999999-9999-4999-8999-999999999999", "req-304")
		s.provider.EXPECT().
			PullStatus(gomock.Any(), "req-304").
			Return(provider.StatusSnapshot{Code: "clear"}, nil)
		terminal, err := s.svc.Refresh(s.ctx, check.ID)
		s.Require().NoError(err)
		s.Require().True(terminal.Status.IsTerminal())

		// No provider expectation: terminal refresh must not pull.
		again, err := s.svc.Refresh(s.ctx, check.ID)
		s.Require().NoError(err)
		s.Equal(terminal.Status, again.Status)
		s.Equal(terminal.Version, again.Version)
	})

	s.Run("refreshing an unknown check", func() {
		_, err := s.svc.Refresh(s.ctx, domain.NewCheckID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// ============================================================================
// Reads
// ============================================================================

func (s *ServiceSuite) TestReads() {
	s.Run("get by id and by application", func() {
		check := s.submitPending("0d4f3f4d-9f8e-4f7a-8a6e-1f2b3c4d5e6f", "req-400")

		byID, err := s.svc.Get(s.ctx, check.ID)
		s.Require().NoError(err)
		s.Equal(check.ID, byID.ID)

		byApp, err := s.svc.GetByApplication(s.ctx, check.ApplicationID)
		s.Require().NoError(err)
		s.Equal(check.ID, byApp.ID)
	})

	s.Run("missing records are typed not-found", func() {
		_, err := s.svc.Get(s.ctx, domain.NewCheckID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.svc.GetByApplication(s.ctx, s.appID("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// ============================================================================
// Poller sweep
// ============================================================================

func (s *ServiceSuite) TestRefreshPending() {
	first := s.submitPending("11111111-1111-4111-8111-111111111111", "req-500")
	second := s.submitPending("22222222-2222-4222-8222-222222222222", "req-501")

	// One check completes, the other errors; the sweep continues past the
	// failure and reports only successful refreshes.
	s.provider.EXPECT().
		PullStatus(gomock.Any(), "req-500").
		Return(provider.StatusSnapshot{Code: "clear"}, nil)
	s.provider.EXPECT().
		PullStatus(gomock.Any(), "req-501").
		Return(provider.StatusSnapshot{}, provider.NewError(provider.ErrorOutage, "503", nil))

	refreshed, err := s.svc.RefreshPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(1, refreshed)

	firstStored, err := s.store.FindByID(s.ctx, first.ID)
	s.Require().NoError(err)
	s.True(firstStored.Status.IsTerminal())

	secondStored, err := s.store.FindByID(s.ctx, second.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, secondStored.Status)
}
