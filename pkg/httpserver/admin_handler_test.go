package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mselser95/swapgate/internal/admin"
	"github.com/mselser95/swapgate/internal/bank"
	"github.com/mselser95/swapgate/internal/settlement"
	"github.com/mselser95/swapgate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testToken = "secret-token"

func newTestHandler(t *testing.T) (*AdminHandler, *admin.Store) {
	t.Helper()

	logger := zaptest.NewLogger(t)

	thresholds, err := admin.NewStore(testutil.Admin, testutil.OpenThresholds(), logger)
	require.NoError(t, err)

	engine, err := settlement.New(&settlement.Config{
		Account:  testutil.Stranger,
		Operator: testutil.Operator,
		Venue:    &testutil.MockVenue{ID: testutil.VenueID},
		Bank:     bank.New(logger),
		Logger:   logger,
	})
	require.NoError(t, err)

	return NewAdminHandler(engine, thresholds, testToken, testutil.Admin.Hex(), logger), thresholds
}

func TestHandleStatus(t *testing.T) {
	t.Parallel()

	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "idle", resp.EngineState)
	assert.Equal(t, int64(500), resp.Thresholds.MaxImpactBps)
}

func TestHandleGetThresholds(t *testing.T) {
	t.Parallel()

	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleGetThresholds(rec, httptest.NewRequest(http.MethodGet, "/api/thresholds", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp thresholdsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.StartHour)
	assert.Equal(t, 24, resp.EndHour)
	assert.Len(t, resp.TradingDays, 7)
	assert.Equal(t, int64(3600), resp.OracleStalenessSeconds)
}

func putThresholds(handler *AdminHandler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/api/thresholds", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.HandlePutThresholds(rec, req)
	return rec
}

func TestHandlePutThresholdsAuth(t *testing.T) {
	t.Parallel()

	handler, thresholds := newTestHandler(t)

	assert.Equal(t, http.StatusUnauthorized, putThresholds(handler, "", `{"max_impact_bps":1}`).Code)
	assert.Equal(t, http.StatusUnauthorized, putThresholds(handler, "wrong", `{"max_impact_bps":1}`).Code)
	assert.Equal(t, int64(500), thresholds.Snapshot().MaxImpactBps)
}

func TestHandlePutThresholdsEmptyTokenNeverAuthorizes(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)
	thresholds, err := admin.NewStore(testutil.Admin, testutil.OpenThresholds(), logger)
	require.NoError(t, err)

	handler := NewAdminHandler(nil, thresholds, "", testutil.Admin.Hex(), logger)

	rec := putThresholds(handler, "", `{"max_impact_bps":1}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlePutThresholdsPartialUpdate(t *testing.T) {
	t.Parallel()

	handler, thresholds := newTestHandler(t)

	rec := putThresholds(handler, testToken, `{"max_impact_bps":250,"oracle_staleness_seconds":600}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := thresholds.Snapshot()
	assert.Equal(t, int64(250), got.MaxImpactBps)
	assert.Equal(t, 10*time.Minute, got.OracleStaleness)

	// Untouched fields survive.
	assert.Equal(t, int64(200), got.MaxDeviationBps)
	assert.Equal(t, 24, got.EndHour)
}

func TestHandlePutThresholdsTradingWindow(t *testing.T) {
	t.Parallel()

	handler, thresholds := newTestHandler(t)

	rec := putThresholds(handler, testToken, `{"start_hour":9,"end_hour":17,"trading_days":["Mon","Wed"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := thresholds.Snapshot()
	assert.Equal(t, 9, got.StartHour)
	assert.Equal(t, 17, got.EndHour)
	assert.True(t, got.TradesOn(time.Monday))
	assert.True(t, got.TradesOn(time.Wednesday))
	assert.False(t, got.TradesOn(time.Friday))
}

func TestHandlePutThresholdsRejectsBadInput(t *testing.T) {
	t.Parallel()

	handler, thresholds := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "negative ceiling", body: `{"max_deviation_bps":-5}`},
		{name: "inverted window", body: `{"start_hour":20,"end_hour":8}`},
		{name: "unknown day", body: `{"trading_days":["Funday"]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := putThresholds(handler, testToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// Nothing changed across all rejected updates.
	assert.Equal(t, testutil.OpenThresholds(), thresholds.Snapshot())
}
