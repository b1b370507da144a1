package web

import (
	"net/http"
	"strconv"

	"mandi-billing/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	r.Route("/api/tenants/{tenantID}", func(r chi.Router) {
		r.Get("/rates", h.apiRates)

		r.Get("/farmers/{farmerID}/day-bill", h.apiFarmerDayBill)
		r.Get("/buyers/{buyerID}/day-bill", h.apiBuyerDayBill)

		r.Get("/day-bills/farmers", h.apiFarmerDayBills)
		r.Get("/day-bills/buyers", h.apiBuyerDayBills)

		r.Get("/buyers/{buyerID}/invoices", h.apiListInvoices)
		r.Post("/buyers/{buyerID}/invoices", h.apiGenerateInvoice)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, "route not found", "NOT_FOUND", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, "method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
	})

	h.router = r
	return r
}

// health reports liveness only; it does not touch the database.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// pathID parses a positive integer URL parameter. On failure it writes a 400 and
// returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, name+" must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// dateParam returns the ?date= query value; empty means today in the billing timezone.
func dateParam(r *http.Request) string {
	return r.URL.Query().Get("date")
}
