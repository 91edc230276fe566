package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"SmartRental/internal/calculator"
	"SmartRental/internal/model"
	"SmartRental/internal/oracle"
	"SmartRental/internal/recorder"
	"SmartRental/internal/strategy"
)

const maxBodyBytes = 1 << 20

// Server exposes the builder, the solver and the evaluation engine over JSON.
type Server struct {
	Engine      *strategy.Engine
	Recorder    recorder.Recorder
	Assumptions model.EconomicAssumptions
	Solver      model.SolverOptions
	Limiter     *RateLimiter
}

// NewServer wires a server with the given defaults. rec may be nil.
func NewServer(eng *strategy.Engine, rec recorder.Recorder, a model.EconomicAssumptions, solver model.SolverOptions) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Server{Engine: eng, Recorder: rec, Assumptions: a, Solver: solver}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		if s.Limiter != nil {
			r.Use(s.Limiter.Middleware)
		}
		r.Post("/cashflows", s.handleCashFlows)
		r.Post("/irr", s.handleIRR)
		r.Post("/evaluations", s.handleEvaluate)
		r.Get("/evaluations", s.handleHistory)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type cashFlowRequest struct {
	NightlyPrice float64                   `json:"nightly_price"`
	Assumptions  model.EconomicAssumptions `json:"assumptions"`
	Costs        model.InvestmentCosts     `json:"costs"`
}

type cashFlowResponse struct {
	Series        []float64       `json:"series"`
	NetAnnualFlow float64         `json:"net_annual_cash_flow"`
	Warnings      []model.Warning `json:"warnings"`
}

func (s *Server) handleCashFlows(w http.ResponseWriter, r *http.Request) {
	req := cashFlowRequest{Assumptions: s.Assumptions}
	if !decode(w, r, &req) {
		return
	}
	series, warnings, err := calculator.BuildCashFlows(req.NightlyPrice, req.Assumptions, req.Costs)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, calculator.FailureKind(err), err.Error())
		return
	}
	resp := cashFlowResponse{
		Series:   make([]float64, len(series)),
		Warnings: warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []model.Warning{}
	}
	for i, v := range series {
		resp.Series[i] = cents(v)
	}
	resp.NetAnnualFlow = cents(calculator.NetAnnualCashFlow(
		req.NightlyPrice, req.Assumptions.OccupancyRatio, req.Assumptions.OperatingCostRatio, req.Costs.AnnualAdminCost))
	writeJSON(w, http.StatusOK, resp)
}

type irrRequest struct {
	CashFlows model.CashFlowSeries `json:"cash_flows"`
	model.SolverOptions
}

func (s *Server) handleIRR(w http.ResponseWriter, r *http.Request) {
	req := irrRequest{SolverOptions: s.Solver}
	if !decode(w, r, &req) {
		return
	}
	if req.CashFlows.Len() == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "cash_flows must not be empty")
		return
	}
	res, err := calculator.Solve(req.CashFlows, req.SolverOptions)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, calculator.FailureKind(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type evaluationRequest struct {
	Name         string                    `json:"name"`
	NightlyPrice float64                   `json:"nightly_price"`
	Features     *model.PropertyFeatures   `json:"features"`
	Assumptions  model.EconomicAssumptions `json:"assumptions"`
	Costs        model.InvestmentCosts     `json:"costs"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	req := evaluationRequest{Assumptions: s.Assumptions}
	if !decode(w, r, &req) {
		return
	}
	ev, err := s.Engine.Evaluate(r.Context(), strategy.Request{
		Name:         req.Name,
		NightlyPrice: req.NightlyPrice,
		Features:     req.Features,
		Assumptions:  req.Assumptions,
		Costs:        req.Costs,
	})
	if recErr := s.Recorder.RecordEvaluation(r.Context(), ev); recErr != nil {
		zap.L().Error("record evaluation", zap.String("evaluation_id", ev.ID), zap.Error(recErr))
	}
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, oracle.ErrPredictionFailure) {
			status = http.StatusBadGateway
		}
		writeError(w, status, ev.FailureKind, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type historyItem struct {
	ID           string        `json:"id"`
	Name         string        `json:"name,omitempty"`
	EvaluatedAt  time.Time     `json:"evaluated_at"`
	NightlyPrice float64       `json:"nightly_price"`
	PriceSource  string        `json:"price_source"`
	IRR          *float64      `json:"irr"`
	FailureKind  string        `json:"failure_kind,omitempty"`
	Verdict      model.Verdict `json:"verdict"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	rows, err := s.Recorder.Recent(r.Context(), limit)
	if err != nil {
		zap.L().Error("read history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "history unavailable")
		return
	}
	items := make([]historyItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, historyItem{
			ID:           row.ID,
			Name:         row.Name,
			EvaluatedAt:  row.EvaluatedAt,
			NightlyPrice: cents(row.NightlyPrice),
			PriceSource:  row.PriceSource,
			IRR:          row.IRR,
			FailureKind:  row.FailureKind,
			Verdict:      row.Verdict,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// cents rounds money half away from zero to two decimals.
func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
