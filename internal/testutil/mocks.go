package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/mselser95/swapgate/internal/venue"
	"github.com/mselser95/swapgate/pkg/types"
)

// MockVerifier is a scripted proof verifier.
type MockVerifier struct {
	mu      sync.Mutex
	Valid   bool
	Err     error
	Calls   int
	LastCID common.Hash
}

// Verify returns the scripted verdict and records the call.
func (m *MockVerifier) Verify(_ context.Context, circuitID common.Hash, _, _ []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastCID = circuitID
	if m.Err != nil {
		return false, m.Err
	}
	return m.Valid, nil
}

// CallCount returns how many times Verify was invoked.
func (m *MockVerifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockProverServer simulates the prover sidecar's verify endpoint.
type MockProverServer struct {
	*httptest.Server
	mu       sync.Mutex
	valid    bool
	status   int
	requests int
}

// NewMockProverServer creates a prover server that returns the given verdict.
func NewMockProverServer(valid bool) *MockProverServer {
	mock := &MockProverServer{valid: valid, status: http.StatusOK}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests++
		valid := mock.valid
		status := mock.status
		mock.mu.Unlock()

		if r.URL.Path != "/v1/verify" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"valid": valid})
	}))

	return mock
}

// SetStatus makes the server answer with the given HTTP status.
func (m *MockProverServer) SetStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Requests returns how many requests the server has handled.
func (m *MockProverServer) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

// MockVenue is a scripted venue for settlement tests. Configure the
// callbacks to drive the engine through specific settlement paths.
type MockVenue struct {
	ID    common.Address
	Pools map[types.MarketKey]types.PoolState

	// OnExecute runs in place of real execution. The settler bound via
	// Bind is available for issuing callbacks mid-execution.
	OnExecute func(ctx context.Context, executionID string, req *types.TradeRequest, settler venue.Settler) (types.SettlementDeltas, error)

	settler venue.Settler
}

// Identity returns the venue's identity.
func (m *MockVenue) Identity() common.Address { return m.ID }

// Bind attaches the settlement callback target.
func (m *MockVenue) Bind(settler venue.Settler, _ common.Address) {
	m.settler = settler
}

// State returns the scripted pool state.
func (m *MockVenue) State(market types.MarketKey) (types.PoolState, bool) {
	state, ok := m.Pools[market]
	return state, ok
}

// ExecuteAndSettle delegates to the scripted OnExecute.
func (m *MockVenue) ExecuteAndSettle(ctx context.Context, executionID string, req *types.TradeRequest) (types.SettlementDeltas, error) {
	return m.OnExecute(ctx, executionID, req, m.settler)
}

// MemoryStorage captures execution records in memory.
type MemoryStorage struct {
	mu      sync.Mutex
	Records []*types.ExecutionRecord
	Err     error
}

// StoreExecution appends the record, or fails with the scripted error.
func (m *MemoryStorage) StoreExecution(_ context.Context, record *types.ExecutionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Records = append(m.Records, record)
	return nil
}

// Close is a no-op.
func (m *MemoryStorage) Close() error { return nil }

// Last returns the most recent stored record, or nil.
func (m *MemoryStorage) Last() *types.ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Records) == 0 {
		return nil
	}
	return m.Records[len(m.Records)-1]
}
