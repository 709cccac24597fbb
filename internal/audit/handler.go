package audit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jewelms/jewelms/internal/auth"
	"github.com/jewelms/jewelms/internal/platform/httpx"
)

// Handler exposes the audit trail read API.
type Handler struct {
	logger *slog.Logger
	store  *Store
	guard  auth.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store *Store, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, store: store, guard: guard}
}

// MountRoutes registers audit routes. Admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireRole(auth.RoleAdmin))
		r.Get("/audit-logs", h.search)
	})
}

type entryResponse struct {
	ID        int64           `json:"id"`
	ActorID   string          `json:"actor_id,omitempty"`
	ActorName string          `json:"actor_name,omitempty"`
	Action    string          `json:"action"`
	TableName string          `json:"table_name"`
	RecordID  string          `json:"record_id,omitempty"`
	OldValues json.RawMessage `json:"old_values,omitempty"`
	NewValues json.RawMessage `json:"new_values,omitempty"`
	IPAddress string          `json:"ip_address,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	qp := r.URL.Query()
	q := Query{
		ActorID:   qp.Get("actor_id"),
		Action:    qp.Get("action"),
		TableName: qp.Get("table"),
		RecordID:  qp.Get("record_id"),
	}
	if v := qp.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
		q.From = t
	}
	if v := qp.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
		// inclusive end of day
		q.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	q.Limit, _ = strconv.Atoi(qp.Get("limit"))
	q.Offset, _ = strconv.Atoi(qp.Get("offset"))

	entries, total, err := h.store.Search(r.Context(), q)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:        e.ID,
			ActorID:   e.ActorID,
			ActorName: e.ActorName,
			Action:    e.Action,
			TableName: e.TableName,
			RecordID:  e.RecordID,
			OldValues: json.RawMessage(e.OldValues),
			NewValues: json.RawMessage(e.NewValues),
			IPAddress: e.IPAddress,
			CreatedAt: e.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"total": total, "entries": out})
}
