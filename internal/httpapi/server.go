package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inferd/internal/journal"
	"inferd/pkg/completion"
	"inferd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Models() []types.ModelStatus
	Status() types.StatusResponse
	Ready() bool
	Released() bool
	State(name string) (types.ModelState, error)
	InitializeModel(ctx context.Context, name string, typ types.ModelType) *completion.Handle[bool]
	InferVector(ctx context.Context, name string, input []float32) (*completion.Handle[[]float32], string)
	InferText(ctx context.Context, name, prompt string) (*completion.Handle[string], string)
	Reset(name string) error
}

// EventSource lists recent journal entries for GET /events.
type EventSource interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// eventSource backs GET /events; nil means no journal is configured and the
// route answers with an empty list.
var eventSource EventSource

// SetEventSource installs the journal behind GET /events. Nil disables it.
func SetEventSource(s EventSource) { eventSource = s }

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, then metrics outside the
	// recoverer so panics are counted as 500s.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/models", handleModels(svc))
	r.Post("/models/{name}/initialize", handleInitialize(svc))
	r.Post("/models/{name}/reset", handleReset(svc))
	r.Post("/infer", handleInfer(svc))
	r.Get("/status", handleStatus(svc))
	r.Get("/events", handleEvents)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(svc))

	// Prometheus metrics endpoint; gauges refresh at scrape time.
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		UpdateStatusGauges(svc.Status())
		promhttp.Handler().ServeHTTP(w, r)
	})

	MountSwagger(r)

	return r
}

// handleModels godoc
// @Summary  List models
// @Tags     models
// @Produce  json
// @Success  200 {object} types.ModelsResponse
// @Router   /models [get]
func handleModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: svc.Models()})
	}
}

// handleStatus godoc
// @Summary  Daemon status
// @Tags     status
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := svc.Status()
		UpdateStatusGauges(st)
		writeJSON(w, http.StatusOK, st)
	}
}

// handleInitialize godoc
// @Summary  Initialize a model
// @Tags     models
// @Produce  json
// @Param    name path  string true  "model name"
// @Param    type query string false "model type for names outside the catalog"
// @Param    wait query string false "block until initialization settles"
// @Success  200 {object} types.InitializeResponse
// @Success  202 {object} types.InitializeResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Router   /models/{name}/initialize [post]
func handleInitialize(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			writeJSONError(w, http.StatusBadRequest, "model name is required")
			return
		}
		typ := types.ModelType(r.URL.Query().Get("type"))
		if typ != "" && !typ.Valid() {
			writeJSONError(w, http.StatusBadRequest, "unknown model type "+strconv.Quote(string(typ)))
			return
		}

		// A kicked-off initialization outlives this request, so it runs
		// under the server context; only waited calls join the request
		// context.
		wait := wantWait(r)
		ctx := serverBaseCtx
		if wait {
			joined, cancel := joinContexts(serverBaseCtx, r.Context())
			defer cancel()
			ctx = joined
		}

		h := svc.InitializeModel(ctx, name, typ)
		if h.Settled() {
			// Registration rejections (for example a reset racing an
			// initialize) settle the handle with the error immediately.
			if _, err := h.Result(); err != nil {
				writeError(w, err)
				return
			}
		}

		if !wait {
			writeJSON(w, http.StatusAccepted, types.InitializeResponse{Model: name, State: stateOrUnregistered(svc, name)})
			return
		}

		ok, err := h.Await(ctx)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.InitializeResponse{
			Model:     name,
			State:     stateOrUnregistered(svc, name),
			Succeeded: &ok,
		})
	}
}

// handleReset godoc
// @Summary  Reset a model back to unregistered
// @Tags     models
// @Produce  json
// @Param    name path string true "model name"
// @Success  200 {object} types.ModelStatus
// @Failure  404 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Router   /models/{name}/reset [post]
func handleReset(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" {
			writeJSONError(w, http.StatusBadRequest, "model name is required")
			return
		}
		if err := svc.Reset(name); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ModelStatus{
			Name:          name,
			State:         types.StateUnregistered,
			UpdatedAtUnix: time.Now().Unix(),
		})
	}
}

// handleInfer godoc
// @Summary  Run one inference
// @Tags     infer
// @Accept   json
// @Produce  json
// @Param    request body types.InferRequest true "inference request"
// @Success  200 {object} types.InferResponse
// @Success  202 {object} types.InferResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  404 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Failure  429 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /infer [post]
func handleInfer(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		// Limit body size (configurable, default 1MiB)
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.InferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Model) == "" {
			writeJSONError(w, http.StatusBadRequest, "model is required")
			return
		}
		typ := req.Type
		if typ == "" {
			// Derive the capability from the payload shape.
			switch {
			case len(req.Input) > 0:
				typ = types.TypeVector
			case strings.TrimSpace(req.Prompt) != "":
				typ = types.TypeText
			default:
				writeJSONError(w, http.StatusBadRequest, "input or prompt is required")
				return
			}
		}
		if !typ.Valid() {
			writeJSONError(w, http.StatusBadRequest, "unknown model type "+strconv.Quote(string(typ)))
			return
		}

		// Accepted-async operations outlive this request and run under the
		// server context, so only shutdown cancels them. Waited calls join
		// the request context and take the configured timeout.
		wait := shouldWait(req)
		ctx := serverBaseCtx
		if wait {
			joined, cancel := joinContexts(serverBaseCtx, r.Context())
			defer cancel()
			ctx = joined
			if inferTimeout > 0 {
				var tcancel context.CancelFunc
				ctx, tcancel = context.WithTimeout(ctx, time.Duration(inferTimeout)*time.Second)
				defer tcancel()
			}
		}

		start := time.Now()
		lvl := requestLogLevel(r)
		if lvl >= LevelInfo {
			z := zlog.Info().Str("path", r.URL.Path).Str("model", req.Model).Str("type", typ.String())
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("infer start")
		}

		switch typ {
		case types.TypeVector:
			if len(req.Input) == 0 {
				writeJSONError(w, http.StatusBadRequest, "input is required for vector inference")
				return
			}
			h, opID := svc.InferVector(ctx, req.Model, req.Input)
			if !wait {
				writeJSON(w, http.StatusAccepted, types.InferResponse{OpID: opID, Model: req.Model})
				logInferEnd(r, lvl, http.StatusAccepted, start, nil)
				return
			}
			out, err := h.Await(ctx)
			if err != nil {
				finishInferError(w, r, lvl, start, err)
				return
			}
			writeJSON(w, http.StatusOK, types.InferResponse{
				OpID:       opID,
				Model:      req.Model,
				Output:     out,
				DurationMs: time.Since(start).Milliseconds(),
			})
			logInferEnd(r, lvl, http.StatusOK, start, nil)

		case types.TypeText:
			if strings.TrimSpace(req.Prompt) == "" {
				writeJSONError(w, http.StatusBadRequest, "prompt is required for text inference")
				return
			}
			h, opID := svc.InferText(ctx, req.Model, req.Prompt)
			if !wait {
				writeJSON(w, http.StatusAccepted, types.InferResponse{OpID: opID, Model: req.Model})
				logInferEnd(r, lvl, http.StatusAccepted, start, nil)
				return
			}
			text, err := h.Await(ctx)
			if err != nil {
				finishInferError(w, r, lvl, start, err)
				return
			}
			writeJSON(w, http.StatusOK, types.InferResponse{
				OpID:       opID,
				Model:      req.Model,
				Text:       text,
				DurationMs: time.Since(start).Milliseconds(),
			})
			logInferEnd(r, lvl, http.StatusOK, start, nil)
		}
	}
}

// finishInferError maps err, counts backpressure, and writes the payload.
// Nothing is written when the client is gone or the server is shutting down.
func finishInferError(w http.ResponseWriter, r *http.Request, lvl LogLevel, start time.Time, err error) {
	if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
		return
	}
	status := statusForError(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("queue_full")
	}
	writeJSONError(w, status, err.Error())
	logInferEnd(r, lvl, status, start, err)
}

// handleEvents godoc
// @Summary  Recent lifecycle events, newest first
// @Tags     status
// @Produce  json
// @Param    n query int false "max entries (default 50)"
// @Success  200 {object} map[string][]journal.Entry
// @Router   /events [get]
func handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		limit = n
	}
	entries := []journal.Entry{}
	if eventSource != nil {
		got, err := eventSource.Recent(r.Context(), limit)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to read events")
			return
		}
		if got != nil {
			entries = got
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": entries})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleReadyz reports 200 once at least one model is ready and the
// dispatcher has not been released.
func handleReadyz(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() && !svc.Released() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	}
}

// wantWait reads the wait query flag used by initialize.
func wantWait(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("wait")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// shouldWait reads the wait field of an infer request; waiting is the
// default.
func shouldWait(req types.InferRequest) bool {
	return req.Wait == nil || *req.Wait
}

func stateOrUnregistered(svc Service, name string) types.ModelState {
	if st, err := svc.State(name); err == nil {
		return st
	}
	return types.StateUnregistered
}
