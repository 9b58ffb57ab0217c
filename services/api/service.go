// Package api is the HTTP surface the cmd/server host process exposes
// over the engine: workflow CRUD backed by services/storage, plus an
// execute endpoint that publishes a trigger event rather than running
// the workflow inline. Grounded on the teacher's services/workflow
// package (service.go's router wiring, workflow.go's handler and
// error-response style), generalized from the teacher's single
// node_library-backed workflow shape to services/graph/services/
// storage's flatter model, and from synchronous in-request execution
// to the async publish-then-return-immediately contract spec.md §6
// "Trigger invocation" specifies.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"workflowengine/pkg/enginerr"
	"workflowengine/services/graph"
	"workflowengine/services/runner"
	"workflowengine/services/storage"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// maxRequestBody limits save/execute request bodies to prevent abuse.
const maxRequestBody = 1 << 20 // 1MB

// userIDHeader is where the caller's identity is read from. Real
// authentication is spec.md's explicit out-of-scope "external
// collaborator"; this header is the narrowest possible stand-in that
// lets ownership enforcement (spec.md §8 property 7) actually run.
const userIDHeader = "X-User-Id"

// Publisher is the subset of pkg/queue.Client the execute endpoint
// needs: enqueue a trigger event and return immediately.
type Publisher interface {
	Publish(ctx context.Context, event any) (string, error)
}

// Service handles HTTP requests for workflow CRUD and execution.
type Service struct {
	storage   storage.Storage
	publisher Publisher
}

// NewService creates a Service backed by store for persistence and
// publisher for enqueuing execute triggers.
func NewService(store storage.Storage, publisher Publisher) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("api: store cannot be nil")
	}
	if publisher == nil {
		return nil, fmt.Errorf("api: publisher cannot be nil")
	}
	return &Service{storage: store, publisher: publisher}, nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// LoadRoutes mounts the workflow CRUD and execute endpoints under
// parentRouter.
func (s *Service) LoadRoutes(parentRouter *mux.Router) {
	router := parentRouter.PathPrefix("/workflows").Subrouter()
	router.StrictSlash(false)
	router.Use(requestIDMiddleware)
	router.Use(jsonMiddleware)

	router.HandleFunc("", s.HandleCreateWorkflow).Methods(http.MethodPost)
	router.HandleFunc("/{id}", s.HandleGetWorkflow).Methods(http.MethodGet)
	router.HandleFunc("/{id}", s.HandleSaveWorkflow).Methods(http.MethodPut)
	router.HandleFunc("/{id}", s.HandleDeleteWorkflow).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/execute", s.HandleExecuteWorkflow).Methods(http.MethodPost)
}

func reqID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

func callerUserID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}

// writeErrorJSON writes a structured JSON error response, mapping
// enginerr kinds to HTTP status codes so clients can tell retriable
// server failures from caller-level mistakes.
func writeErrorJSON(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch enginerr.KindOf(err) {
	case enginerr.KindNotFound:
		status = http.StatusNotFound
	case enginerr.KindNotAuthorized:
		status = http.StatusForbidden
	case enginerr.KindConfig, enginerr.KindCycle:
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":    string(enginerr.KindOf(err)),
		"message": err.Error(),
	})
}

// HandleCreateWorkflow creates a new workflow seeded with one INITIAL
// node, per spec.md §3's lifecycle.
func (s *Service) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)
	userID := callerUserID(r)

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Warn().Err(err).Str("requestId", rid).Msg("invalid create body")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"code": "INVALID_BODY", "message": "invalid request body"})
		return
	}

	wf, err := s.storage.Create(r.Context(), body.Name, userID)
	if err != nil {
		log.Error().Err(err).Str("requestId", rid).Msg("failed to create workflow")
		writeErrorJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(wf)
}

// HandleGetWorkflow loads a workflow graph by ID.
func (s *Service) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)
	userID := callerUserID(r)
	id := mux.Vars(r)["id"]

	wfUUID, err := uuid.Parse(id)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("invalid workflow id")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"code": "INVALID_ID", "message": "invalid workflow id"})
		return
	}

	g, err := s.storage.Load(r.Context(), wfUUID, userID)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("failed to load workflow")
		writeErrorJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"id":          g.Workflow.ID,
		"name":        g.Workflow.Name,
		"nodes":       g.Nodes,
		"connections": g.Connections,
	})
}

// HandleSaveWorkflow fully replaces a workflow's node and connection
// sets, per spec.md §6 save semantics.
func (s *Service) HandleSaveWorkflow(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)
	userID := callerUserID(r)
	id := mux.Vars(r)["id"]

	wfUUID, err := uuid.Parse(id)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("invalid workflow id")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"code": "INVALID_ID", "message": "invalid workflow id"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var body struct {
		Nodes       []graph.Node       `json:"nodes"`
		Connections []graph.Connection `json:"connections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("invalid save body")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"code": "INVALID_BODY", "message": "invalid request body"})
		return
	}

	wf, err := s.storage.Save(r.Context(), wfUUID, userID, body.Nodes, body.Connections)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("failed to save workflow")
		writeErrorJSON(w, err)
		return
	}

	json.NewEncoder(w).Encode(wf)
}

// HandleDeleteWorkflow deletes a workflow and its nodes/connections.
func (s *Service) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)
	userID := callerUserID(r)
	id := mux.Vars(r)["id"]

	wfUUID, err := uuid.Parse(id)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("invalid workflow id")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"code": "INVALID_ID", "message": "invalid workflow id"})
		return
	}

	if err := s.storage.Delete(r.Context(), wfUUID, userID); err != nil {
		log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("failed to delete workflow")
		writeErrorJSON(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleExecuteWorkflow publishes a trigger event for the workflow and
// returns immediately; it does not await execution (spec.md §6
// "Trigger invocation").
func (s *Service) HandleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	rid := reqID(r)
	userID := callerUserID(r)
	id := mux.Vars(r)["id"]

	wfUUID, err := uuid.Parse(id)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("invalid workflow id")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"code": "INVALID_ID", "message": "invalid workflow id"})
		return
	}

	// Verify ownership before publishing; the trigger event itself
	// carries userID so the runner can re-check defensively, but the
	// API layer is where spec.md says the check actually happens.
	g, err := s.storage.Load(r.Context(), wfUUID, userID)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("failed to verify ownership")
		writeErrorJSON(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var body struct {
		InitialData map[string]any `json:"initialData"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			log.Warn().Err(err).Str("id", id).Str("requestId", rid).Msg("invalid execute body")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"code": "INVALID_BODY", "message": "invalid request body"})
			return
		}
	}

	event := runner.TriggerEvent{
		WorkflowID:  g.Workflow.ID.String(),
		UserID:      userID,
		ExecutionID: uuid.New(),
		InitialData: body.InitialData,
	}
	if _, err := s.publisher.Publish(r.Context(), event); err != nil {
		log.Error().Err(err).Str("id", id).Str("requestId", rid).Msg("failed to publish execute trigger")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"code": "INTERNAL_ERROR", "message": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"id": g.Workflow.ID, "executionId": event.ExecutionID})
}
