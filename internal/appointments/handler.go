package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/docchat/bookingbot/pkg/logging"
)

// Lister reads back stored appointments for the admin view.
type Lister interface {
	ListRecent(ctx context.Context, limit int) ([]Appointment, error)
}

// AdminHandler hosts the privileged appointment listing endpoint.
type AdminHandler struct {
	store  Lister
	logger *logging.Logger
}

// NewAdminHandler constructs the admin handler.
func NewAdminHandler(store Lister, logger *logging.Logger) *AdminHandler {
	if store == nil {
		panic("appointments: lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{store: store, logger: logger.Component("admin_appointments")}
}

// List handles GET /admin/appointments?limit=N.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, `{"error":"limit must be 1-500"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	items, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list appointments failed", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []Appointment{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"appointments": items, "count": len(items)}); err != nil {
		h.logger.Error("encode appointments failed", "error", err)
	}
}
