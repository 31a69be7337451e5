package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/auth"
)

type appMetrics struct {
	started             time.Time
	transactionsCreated int64
	transactionsDeleted int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{started: time.Now()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// userID reads the id set by the auth middleware. Routes are only mounted
// behind it, so a missing id is a wiring bug.
func userID(r *http.Request) int64 {
	id, _ := auth.UserID(r.Context())
	return id
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in core.CreateTransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	created, err := s.svc.Create(r.Context(), userID(r), in)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.metrics.transactionsCreated, int64(len(created)))

	// Installment plans answer with every generated row.
	if len(created) == 1 && !created[0].IsInstallment() {
		writeJSON(w, http.StatusCreated, created[0])
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	in, err := parseListQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}

	page, err := s.svc.List(r.Context(), userID(r), in)
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}

	tx, err := s.svc.Get(r.Context(), id, userID(r))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var in core.UpdateTransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}

	tx, err := s.svc.Update(r.Context(), id, userID(r), in)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	scope, err := core.ParseDeleteScope(r.URL.Query().Get("scope"))
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}

	n, err := s.svc.Delete(r.Context(), id, userID(r), scope)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	atomic.AddInt64(&s.metrics.transactionsDeleted, n)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}

	n, err := s.svc.DeleteInstallmentGroup(r.Context(), id, userID(r))
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	atomic.AddInt64(&s.metrics.transactionsDeleted, n)
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any, len(s.checks)+1)

	for name, dep := range s.checks {
		if err := dep.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				"check", name,
				applog.FieldErrorType, applog.ErrorTypeDatabase,
				applog.FieldError, err)
			checks[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
