package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/mselser95/swapgate/internal/admin"
	"github.com/mselser95/swapgate/internal/settlement"
	"github.com/mselser95/swapgate/pkg/config"
	"go.uber.org/zap"
)

// AdminHandler serves engine status and the threshold administrative surface.
// Threshold mutation requires the admin bearer token; the mutation is applied
// under the configured administrator identity.
type AdminHandler struct {
	engine     *settlement.Engine
	thresholds *admin.Store
	adminToken string
	adminAddr  common.Address
	logger     *zap.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(engine *settlement.Engine, thresholds *admin.Store, adminToken, adminIdentity string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		engine:     engine,
		thresholds: thresholds,
		adminToken: adminToken,
		adminAddr:  common.HexToAddress(adminIdentity),
		logger:     logger,
	}
}

// statusResponse is the wire shape of /api/status.
type statusResponse struct {
	EngineState string             `json:"engine_state"`
	Thresholds  thresholdsResponse `json:"thresholds"`
}

// thresholdsResponse is the wire shape of the threshold snapshot.
type thresholdsResponse struct {
	StartHour              int      `json:"start_hour"`
	EndHour                int      `json:"end_hour"`
	TradingDays            []string `json:"trading_days"`
	MaxImpactBps           int64    `json:"max_impact_bps"`
	MaxDeviationBps        int64    `json:"max_deviation_bps"`
	MaxVolatilityBps       int64    `json:"max_volatility_bps"`
	OracleStalenessSeconds int64    `json:"oracle_staleness_seconds"`
}

// thresholdsRequest is the wire shape of a threshold update.
type thresholdsRequest struct {
	StartHour              *int     `json:"start_hour"`
	EndHour                *int     `json:"end_hour"`
	TradingDays            []string `json:"trading_days"`
	MaxImpactBps           *int64   `json:"max_impact_bps"`
	MaxDeviationBps        *int64   `json:"max_deviation_bps"`
	MaxVolatilityBps       *int64   `json:"max_volatility_bps"`
	OracleStalenessSeconds *int64   `json:"oracle_staleness_seconds"`
}

// HandleStatus serves the engine state and current thresholds.
func (h *AdminHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		EngineState: string(h.engine.CurrentState()),
		Thresholds:  toThresholdsResponse(h.thresholds.Snapshot()),
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGetThresholds serves the current threshold snapshot.
func (h *AdminHandler) HandleGetThresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toThresholdsResponse(h.thresholds.Snapshot()))
}

// HandlePutThresholds applies a threshold update under the administrator
// identity. Fields omitted from the request are left unchanged.
func (h *AdminHandler) HandlePutThresholds(w http.ResponseWriter, r *http.Request) {
	if h.adminToken == "" || r.Header.Get("Authorization") != "Bearer "+h.adminToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req thresholdsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	if err := h.apply(&req); err != nil {
		h.logger.Warn("threshold-update-rejected", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, toThresholdsResponse(h.thresholds.Snapshot()))
}

func (h *AdminHandler) apply(req *thresholdsRequest) error {
	current := h.thresholds.Snapshot()

	if req.StartHour != nil || req.EndHour != nil || req.TradingDays != nil {
		start := current.StartHour
		end := current.EndHour
		days := current.TradingDays

		if req.StartHour != nil {
			start = *req.StartHour
		}
		if req.EndHour != nil {
			end = *req.EndHour
		}
		if req.TradingDays != nil {
			var err error
			days, err = config.ParseTradingDays(strings.Join(req.TradingDays, ","))
			if err != nil {
				return err
			}
		}

		if err := h.thresholds.SetTradingWindow(h.adminAddr, start, end, days); err != nil {
			return err
		}
	}

	if req.MaxImpactBps != nil {
		if err := h.thresholds.SetMaxImpactBps(h.adminAddr, *req.MaxImpactBps); err != nil {
			return err
		}
	}
	if req.MaxDeviationBps != nil {
		if err := h.thresholds.SetMaxDeviationBps(h.adminAddr, *req.MaxDeviationBps); err != nil {
			return err
		}
	}
	if req.MaxVolatilityBps != nil {
		if err := h.thresholds.SetMaxVolatilityBps(h.adminAddr, *req.MaxVolatilityBps); err != nil {
			return err
		}
	}
	if req.OracleStalenessSeconds != nil {
		if err := h.thresholds.SetOracleStaleness(h.adminAddr, time.Duration(*req.OracleStalenessSeconds)*time.Second); err != nil {
			return err
		}
	}

	return nil
}

func toThresholdsResponse(t admin.Thresholds) thresholdsResponse {
	days := make([]string, 0, len(t.TradingDays))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if t.TradingDays[d] {
			days = append(days, d.String()[:3])
		}
	}

	return thresholdsResponse{
		StartHour:              t.StartHour,
		EndHour:                t.EndHour,
		TradingDays:            days,
		MaxImpactBps:           t.MaxImpactBps,
		MaxDeviationBps:        t.MaxDeviationBps,
		MaxVolatilityBps:       t.MaxVolatilityBps,
		OracleStalenessSeconds: int64(t.OracleStaleness.Seconds()),
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
