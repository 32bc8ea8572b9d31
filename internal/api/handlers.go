// Package api exposes the scan service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/oddsmath"
	"github.com/yourusername/prop-edge/internal/service"
	"github.com/yourusername/prop-edge/internal/slip"
)

const maxBodyBytes = 4 << 20

// ScanService is the service surface the handlers call
type ScanService interface {
	Scan(ctx context.Context, req service.ScanRequest) (*service.ScanResult, error)
	BuildSlips(ctx context.Context, req service.SlipRequest) (*service.SlipResult, error)
	PriceSlip(ctx context.Context, req service.PriceRequest) (*service.PricedSlip, error)
	CheckEdge(sharpOdds int, opposing *int) (models.PropOpportunity, error)
	SaveVersion(ctx context.Context, version *models.ScanVersion) error
	ListVersions(ctx context.Context, limit int) ([]*models.ScanVersion, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*models.ScanVersion, error)
	DeleteVersion(ctx context.Context, id uuid.UUID) error
	Trending(ctx context.Context, sport string, limit int) (*service.TrendingResult, error)
	CurrentSettings() service.SettingsView
}

// Handlers serves the /v1 routes
type Handlers struct {
	svc         ScanService
	scanTimeout time.Duration
	logger      *logrus.Entry
}

// NewHandlers creates the route handlers. Scans are bounded by scanTimeout when it is positive.
func NewHandlers(svc ScanService, scanTimeout time.Duration, logger *logrus.Logger) *Handlers {
	return &Handlers{svc: svc, scanTimeout: scanTimeout, logger: logger.WithField("component", "api")}
}

// RegisterHTTP registers the API routes onto mux
func (h *Handlers) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/scan", h.handleScan)
	mux.HandleFunc("POST /v1/slips", h.handleSlips)
	mux.HandleFunc("POST /v1/slips/price", h.handlePriceSlip)
	mux.HandleFunc("POST /v1/edge", h.handleEdge)
	mux.HandleFunc("POST /v1/ev", h.handleEV)
	mux.HandleFunc("POST /v1/middle", h.handleMiddle)
	mux.HandleFunc("GET /v1/trending", h.handleTrending)
	mux.HandleFunc("GET /v1/settings", h.handleSettings)
	mux.HandleFunc("GET /v1/history", h.handleListHistory)
	mux.HandleFunc("GET /v1/history/{id}", h.handleGetHistory)
	mux.HandleFunc("DELETE /v1/history/{id}", h.handleDeleteHistory)
}

type scanBody struct {
	service.ScanRequest
	Save       bool     `json:"save"`
	LockedKeys []string `json:"locked_keys"`
}

type scanResponse struct {
	*service.ScanResult
	VersionID string `json:"version_id,omitempty"`
}

func (h *Handlers) handleScan(w http.ResponseWriter, r *http.Request) {
	var body scanBody
	if !decodeBody(w, r, &body) {
		return
	}

	ctx := r.Context()
	if h.scanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.scanTimeout)
		defer cancel()
	}

	result, err := h.svc.Scan(ctx, body.ScanRequest)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := scanResponse{ScanResult: result}
	if body.Save {
		version := service.NewScanVersion(result, nil, body.LockedKeys)
		if err := h.svc.SaveVersion(r.Context(), version); err != nil {
			h.writeError(w, err)
			return
		}
		resp.VersionID = version.ID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handleSlips(w http.ResponseWriter, r *http.Request) {
	var req service.SlipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.BuildSlips(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) handlePriceSlip(w http.ResponseWriter, r *http.Request) {
	var req service.PriceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.svc.PriceSlip(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type edgeRequest struct {
	SharpOdds    int  `json:"sharp_odds"`
	OpposingOdds *int `json:"opposing_odds"`
}

type edgeResponse struct {
	models.PropOpportunity
	EdgePct float64 `json:"edge_pct"`
}

func (h *Handlers) handleEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	opp, err := h.svc.CheckEdge(req.SharpOdds, req.OpposingOdds)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, edgeResponse{PropOpportunity: opp, EdgePct: models.Round(opp.EdgePct(), 2)})
}

type evRequest struct {
	Odds         int      `json:"odds"`
	Probability  float64  `json:"probability"`
	Stake        *float64 `json:"stake"`
	OpposingOdds *int     `json:"opposing_odds"`
	Confidence   *float64 `json:"probability_confidence"`
}

func (h *Handlers) handleEV(w http.ResponseWriter, r *http.Request) {
	var req evRequest
	if !decodeBody(w, r, &req) {
		return
	}
	stake, confidence := 100.0, 1.0
	if req.Stake != nil {
		stake = *req.Stake
	}
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	res, err := oddsmath.CalculateBetEV(oddsmath.BetInput{
		Odds:         req.Odds,
		Probability:  req.Probability,
		Stake:        stake,
		OpposingOdds: req.OpposingOdds,
		Confidence:   confidence,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type middleRequest struct {
	PlayerName       string   `json:"player_name"`
	Stat             string   `json:"stat"`
	DFSLine          *float64 `json:"dfs_line"`
	SharpLine        *float64 `json:"sharp_line"`
	SharpOdds        *int     `json:"sharp_odds"`
	DFSOdds          *int     `json:"dfs_odds"`
	LineStdDev       *float64 `json:"line_std"`
	MarketConfidence *float64 `json:"market_confidence"`
	DFSPlatform      string   `json:"dfs_platform"`
	SharpBook        string   `json:"sharp_book"`
}

func (h *Handlers) handleMiddle(w http.ResponseWriter, r *http.Request) {
	var req middleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DFSLine == nil || req.SharpLine == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "dfs_line and sharp_line are required"})
		return
	}

	in := oddsmath.MiddleInput{
		PlayerName:       req.PlayerName,
		Stat:             req.Stat,
		DFSLine:          *req.DFSLine,
		SharpLine:        *req.SharpLine,
		DFSOdds:          oddsmath.DefaultMiddleOdds,
		SharpOdds:        oddsmath.DefaultMiddleOdds,
		MarketConfidence: oddsmath.DefaultMarketConfidence,
		DFSPlatform:      req.DFSPlatform,
		SharpBook:        req.SharpBook,
	}
	if req.DFSOdds != nil {
		in.DFSOdds = *req.DFSOdds
	}
	if req.SharpOdds != nil {
		in.SharpOdds = *req.SharpOdds
	}
	if req.LineStdDev != nil {
		in.LineStdDev = *req.LineStdDev
	}
	if req.MarketConfidence != nil {
		in.MarketConfidence = *req.MarketConfidence
	}
	if in.DFSPlatform == "" {
		in.DFSPlatform = "prizepicks"
	}
	if in.SharpBook == "" {
		in.SharpBook = "pinnacle"
	}

	res, err := oddsmath.FindMiddle(in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	res, err := h.svc.Trending(r.Context(), r.URL.Query().Get("sport"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CurrentSettings())
}

func (h *Handlers) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	versions, err := h.svc.ListVersions(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (h *Handlers) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	version, err := h.svc.GetVersion(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (h *Handlers) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteVersion(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Error       string   `json:"error"`
	Code        string   `json:"code,omitempty"`
	Unavailable []string `json:"unavailable_legs,omitempty"`
}

// writeError maps service errors onto HTTP statuses
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var unavailable *slip.UnavailableError
	var sourceErr *datasource.SourceError
	switch {
	case errors.As(err, &unavailable):
		status = http.StatusUnprocessableEntity
		for _, l := range unavailable.Legs {
			resp.Unavailable = append(resp.Unavailable, l.PlayerName+" "+l.Market)
		}
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, models.ErrInvalidSlip),
		errors.Is(err, models.ErrInvalidOdds),
		errors.Is(err, models.ErrInvalidProbability),
		errors.Is(err, models.ErrInvalidLine):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoScan):
		status = http.StatusConflict
	case errors.Is(err, service.ErrHistoryDisabled), errors.Is(err, service.ErrTrendsDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &sourceErr):
		status = http.StatusBadGateway
		resp.Code = sourceErr.Code
	}

	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("status", status).Error("Request failed")
	}
	writeJSON(w, status, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid version id"})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
