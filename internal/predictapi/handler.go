// Package predictapi serves the classifier over HTTP.
//
//	POST /v1/predict      classify one text or a batch
//	GET  /v1/predictions  recent logged predictions (storage only)
//	GET  /v1/stats        label counts (storage only)
package predictapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	kinds "github.com/lueurxax/fakenews-detector/internal/core/errors"
	"github.com/lueurxax/fakenews-detector/internal/platform/observability"
	"github.com/lueurxax/fakenews-detector/internal/process/pipeline"
	db "github.com/lueurxax/fakenews-detector/internal/storage"
)

const (
	PathPredict     = "/v1/predict"
	PathPredictions = "/v1/predictions"
	PathStats       = "/v1/stats"

	// MaxBatch bounds the number of texts in one request.
	MaxBatch = 100

	defaultRPS       = 20
	defaultBurst     = 40
	defaultMaxBody   = 1 << 20
	defaultStatsSpan = 24 * time.Hour

	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"

	logFieldIP    = "ip"
	logFieldCount = "count"
)

var (
	errEmptyText     = errors.New("text must not be empty")
	errBatchTooLarge = errors.New("too many texts in one request")
	errNoStorage     = errors.New("prediction log is not configured")
)

// Predictor is the pipeline surface the handler needs.
type Predictor interface {
	PredictBatch(raws []string) ([]pipeline.Prediction, error)
}

// Store is the optional prediction log.
type Store interface {
	RecordPrediction(ctx context.Context, rec *db.PredictionRecord) error
	RecentPredictions(ctx context.Context, f db.PredictionFilter) ([]db.PredictionRecord, error)
	LabelCounts(ctx context.Context, since time.Time) (map[string]int64, error)
}

type Options struct {
	ModelID string
	RPS     float64
	Burst   int
	MaxBody int64
	// Timeout bounds a request; zero leaves it unbounded.
	Timeout time.Duration
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix
	// LimiterIdle is how long an unused per-client limiter is kept.
	LimiterIdle time.Duration
}

// Handler serves the predict API.
type Handler struct {
	predictor Predictor
	store     Store
	opts      Options
	logger    *zerolog.Logger
	mux       *http.ServeMux
	limiters  *limiterSet
}

// NewHandler creates the API handler. store may be nil.
func NewHandler(predictor Predictor, store Store, opts Options, logger *zerolog.Logger) *Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}

	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}

	if opts.MaxBody <= 0 {
		opts.MaxBody = defaultMaxBody
	}

	h := &Handler{
		predictor: predictor,
		store:     store,
		opts:      opts,
		logger:    logger,
		limiters:  newLimiterSet(opts.RPS, opts.Burst, opts.LimiterIdle),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathPredict, h.handlePredict)
	mux.HandleFunc("GET "+PathPredictions, h.handleRecent)
	mux.HandleFunc("GET "+PathStats, h.handleStats)
	h.mux = mux

	return h
}

// Routes lists the patterns the handler must be mounted on.
func (h *Handler) Routes() []string {
	return []string{PathPredict, PathPredictions, PathStats}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	client := clientIP(r, h.opts.TrustedProxies)

	if !h.limiters.allow(client) {
		observability.APIRequests.WithLabelValues(observability.StatusLimited).Inc()
		h.logger.Debug().Str(logFieldIP, client).Msg("predict API rate limited")
		writeError(w, http.StatusTooManyRequests, "too many requests")

		return
	}

	if h.opts.Timeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), h.opts.Timeout)
		defer cancel()

		r = r.WithContext(ctx)
	}

	h.mux.ServeHTTP(w, r)
}

// PredictRequest carries either Text or Texts. Title is prepended to Text
// when set.
type PredictRequest struct {
	Title     string   `json:"title,omitempty"`
	Text      string   `json:"text,omitempty"`
	Texts     []string `json:"texts,omitempty"`
	SourceRef string   `json:"source_ref,omitempty"`
}

type PredictResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	ProbFake   float64 `json:"prob_fake"`
	Degraded   bool    `json:"degraded"`
}

type PredictResponse struct {
	ModelID string          `json:"model_id,omitempty"`
	Results []PredictResult `json:"results"`
}

func (req PredictRequest) raws() ([]string, error) {
	if len(req.Texts) > 0 {
		if len(req.Texts) > MaxBatch {
			return nil, errBatchTooLarge
		}

		for _, t := range req.Texts {
			if strings.TrimSpace(t) == "" {
				return nil, errEmptyText
			}
		}

		return req.Texts, nil
	}

	if strings.TrimSpace(req.Text) == "" {
		return nil, errEmptyText
	}

	if req.Title != "" {
		return []string{req.Title + " " + req.Text}, nil
	}

	return []string{req.Text}, nil
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.opts.MaxBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		observability.APIRequests.WithLabelValues(observability.StatusRejected).Inc()
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())

		return
	}

	raws, err := req.raws()
	if err != nil {
		observability.APIRequests.WithLabelValues(observability.StatusRejected).Inc()
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	preds, err := h.predictor.PredictBatch(raws)
	if err != nil {
		observability.APIRequests.WithLabelValues(observability.StatusError).Inc()
		h.logger.Error().Err(err).Int(logFieldCount, len(raws)).Msg("predict request failed")
		writeError(w, statusFor(err), err.Error())

		return
	}

	resp := PredictResponse{ModelID: h.opts.ModelID, Results: make([]PredictResult, len(preds))}

	for i, p := range preds {
		resp.Results[i] = PredictResult{
			Label:      p.Label.String(),
			Confidence: p.Confidence,
			ProbFake:   p.ProbFake,
			Degraded:   p.Degraded,
		}

		h.record(r.Context(), req, raws[i], p)
	}

	observability.APIRequests.WithLabelValues(observability.StatusOK).Inc()
	writeJSON(w, http.StatusOK, resp)
}

// record logs one prediction. Failures are logged and never fail the request.
func (h *Handler) record(ctx context.Context, req PredictRequest, raw string, p pipeline.Prediction) {
	if h.store == nil {
		return
	}

	rec := &db.PredictionRecord{
		ModelID:    h.opts.ModelID,
		Source:     db.SourceHTTP,
		SourceRef:  req.SourceRef,
		Title:      req.Title,
		Excerpt:    raw,
		Label:      p.Label.String(),
		Confidence: p.Confidence,
		ProbFake:   p.ProbFake,
		Degraded:   p.Degraded,
	}

	if err := h.store.RecordPrediction(ctx, rec); err != nil {
		h.logger.Warn().Err(err).Msg("failed to record prediction")
	}
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, errNoStorage.Error())
		return
	}

	q := r.URL.Query()
	f := db.PredictionFilter{
		Label:  strings.ToUpper(q.Get("label")),
		Source: q.Get("source"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}

		f.Limit = limit
	}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}

		f.Since = since
	}

	records, err := h.store.RecentPredictions(r.Context(), f)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list predictions")
		writeError(w, http.StatusInternalServerError, "failed to list predictions")

		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, errNoStorage.Error())
		return
	}

	span := defaultStatsSpan

	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive duration")
			return
		}

		span = d
	}

	counts, err := h.store.LabelCounts(r.Context(), time.Now().Add(-span))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count predictions")
		writeError(w, http.StatusInternalServerError, "failed to count predictions")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"window": span.String(), "counts": counts})
}

func statusFor(err error) int {
	switch kinds.KindOf(err) {
	case kinds.KindInvalidInput, kinds.KindDataFormat:
		return http.StatusBadRequest
	case kinds.KindNotFitted, kinds.KindTraining:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errchkjson // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
