package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockClient is a deterministic in-memory provider used in dev mode and tests.
// Each created request advances one provider-side stage per status pull:
// received, in_progress, then a terminal code chosen from the candidate's
// name so test fixtures can steer outcomes without extra plumbing.
type MockClient struct {
	mu       sync.Mutex
	seq      int
	requests map[string]*mockRequest
}

type mockRequest struct {
	terminalCode string
	pulls        int
	events       []TimelineEntry
}

func NewMockClient() *MockClient {
	return &MockClient{requests: make(map[string]*mockRequest)}
}

func (m *MockClient) CreateRequest(ctx context.Context, req CreateRequest) (CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := fmt.Sprintf("mock-%06d", m.seq)
	m.requests[id] = &mockRequest{
		terminalCode: terminalCodeFor(req.Candidate.FullName),
		events: []TimelineEntry{
			{Timestamp: time.Now().UTC(), Description: "screening request received"},
		},
	}
	return CreateResult{RequestID: id}, nil
}

func (m *MockClient) PullStatus(ctx context.Context, requestID string) (StatusSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[requestID]
	if !ok {
		return StatusSnapshot{}, NewError(ErrorNotFound, "unknown mock request "+requestID, nil)
	}

	req.pulls++
	switch req.pulls {
	case 1:
		return StatusSnapshot{Code: "received", Events: cloneEvents(req.events)}, nil
	case 2:
		req.events = append(req.events, TimelineEntry{
			Timestamp:   time.Now().UTC(),
			Description: "screening in progress",
		})
		return StatusSnapshot{Code: "in_progress", Events: cloneEvents(req.events)}, nil
	default:
		req.events = append(req.events, TimelineEntry{
			Timestamp:   time.Now().UTC(),
			Description: "screening " + req.terminalCode,
		})
		return StatusSnapshot{
			Code:      req.terminalCode,
			ReportURL: "https://reports.mock.local/" + requestID,
			Events:    cloneEvents(req.events),
		}, nil
	}
}

// terminalCodeFor picks the terminal provider code from markers in the
// candidate name. Names containing "review" finish as needs_review, names
// containing "dispute" as disputed_unresolved, everything else clears.
func terminalCodeFor(fullName string) string {
	name := strings.ToLower(fullName)
	switch {
	case strings.Contains(name, "review"):
		return "needs_review"
	case strings.Contains(name, "dispute"):
		return "disputed_unresolved"
	default:
		return "clear"
	}
}

func cloneEvents(events []TimelineEntry) []TimelineEntry {
	out := make([]TimelineEntry, len(events))
	copy(out, events)
	return out
}
