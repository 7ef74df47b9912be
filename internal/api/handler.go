package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/washhub/realtime/pkg/logger"
	"github.com/washhub/realtime/pkg/notify"
	"github.com/washhub/realtime/pkg/rooms"
)

// Handler serves the reconciliation API and the internal send endpoint.
type Handler struct {
	svc         *notify.Service
	verifier    Verifier
	internalKey string
	logger      *slog.Logger
}

// NewHandler creates the API handler. internalKey guards the platform-facing
// send endpoint.
func NewHandler(svc *notify.Service, verifier Verifier, internalKey string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc:         svc,
		verifier:    verifier,
		internalKey: internalKey,
		logger:      log,
	}
}

// Routes mounts the API onto a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(authMiddleware(h.verifier))
		r.Get("/", h.list)
		r.Get("/unread-count", h.unreadCount)
		r.Post("/{id}/read", h.markRead)
		r.Post("/read-all", h.markAllRead)
	})

	r.Post("/internal/notifications/send", h.send)

	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	rcpt, ok := recipientFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.svc.List(r.Context(), rcpt, opts)
	if err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelError, "list notifications failed",
			logger.UserID(rcpt.UserID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []notify.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": records})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	rcpt, ok := recipientFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	count, err := h.svc.CountUnread(r.Context(), rcpt)
	if err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelError, "count unread failed",
			logger.UserID(rcpt.UserID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	rcpt, ok := recipientFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.MarkRead(r.Context(), rcpt.AppType, rcpt.UserID, id); err != nil {
		if errors.Is(err, notify.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	rcpt, ok := recipientFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if err := h.svc.MarkAllRead(r.Context(), rcpt); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sendRequest is the platform-facing send payload. App types use the
// uppercase wire form.
type sendRequest struct {
	Target struct {
		Kind          string `json:"kind"`
		AppType       string `json:"appType,omitempty"`
		UserID        string `json:"userId,omitempty"`
		PermissionKey string `json:"permissionKey,omitempty"`
	} `json:"target"`
	Content notify.Content `json:"content"`
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	if subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Internal-Key")), []byte(h.internalKey)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid internal key")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	target := notify.Target{
		Kind:          notify.TargetKind(req.Target.Kind),
		UserID:        req.Target.UserID,
		PermissionKey: req.Target.PermissionKey,
	}
	if req.Target.AppType != "" {
		app, err := rooms.ParseAppType(req.Target.AppType)
		if err != nil {
			writeError(w, http.StatusBadRequest, "target app type must be CUSTOMER or DRIVER")
			return
		}
		target.AppType = app
	}

	if err := h.svc.Send(r.Context(), target, req.Content); err != nil {
		if errors.Is(err, notify.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.LogAttrs(r.Context(), slog.LevelError, "send notification failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

const (
	// defaultListLimit bounds unpaginated list requests.
	defaultListLimit = 50
	// maxListLimit caps an explicit limit; larger values are clamped.
	maxListLimit = 200
)

func listOptions(r *http.Request) (notify.ListOptions, error) {
	opts := notify.ListOptions{Limit: defaultListLimit}
	query := r.URL.Query()

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return opts, errors.New("limit must be a positive integer")
		}
		opts.Limit = min(limit, maxListLimit)
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return opts, errors.New("offset must be a non-negative integer")
		}
		opts.Offset = offset
	}
	if query.Get("unread") == "true" {
		opts.OnlyUnread = true
	}
	for _, raw := range query["category"] {
		cat := notify.Category(raw)
		if !cat.Valid() {
			return opts, errors.New("unknown category: " + raw)
		}
		opts.Categories = append(opts.Categories, cat)
	}
	if raw := query.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return opts, errors.New("since must be an RFC 3339 timestamp")
		}
		opts.Since = &since
	}

	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
