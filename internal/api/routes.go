package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticket-ledger/internal/utils"
)

func chiURLParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func queryID(r *http.Request, name string) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s query parameter is required", name)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// requestLogger times every request and writes one API log line per call,
// tagged with a correlation id.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := utils.GenerateRequestID()
		start := time.Now()
		next.ServeHTTP(w, r)
		if h.Logger != nil {
			h.Logger.LogAPI(r.Method, r.URL.Path, reqID, time.Since(start).String())
		}
	})
}

// Routes builds the full chi router. authMiddleware guards every mutating
// endpoint; read queries stay open.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(h.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Read-only queries
	r.Route("/events", func(r chi.Router) {
		r.Get("/{eventID}", h.GetEvent)
		r.Get("/{eventID}/price", h.GetPrice)
		r.Get("/{eventID}/available", h.GetAvailable)
		r.Get("/{eventID}/signals", h.GetSignals)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.CreateEvent)
			r.Patch("/{eventID}/status", h.SetEventStatus)
			r.Patch("/{eventID}/metadata", h.UpdateEventMetadata)
			r.Post("/{eventID}/withdraw", h.EmergencyWithdraw)
		})
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/{ticketID}/proof", h.GetTicketProof)
		r.Get("/{ticketID}/verify", h.VerifyTicket)
		r.Get("/{ticketID}/used", h.IsTicketUsed)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/mint", h.MintTicket)
			r.Post("/transfer", h.TransferTickets)
			r.Post("/{ticketID}/use", h.UseTicket)
			r.Post("/{ticketID}/burn", h.BurnTicket)
			r.Post("/{ticketID}/invalidate", h.InvalidateTicket)
			r.Get("/{ticketID}/pass", h.GetTicketPass)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/{address}/tickets", h.GetUserTickets)
		r.Get("/{address}/blacklisted", h.IsBlacklisted)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/checkin", h.CheckinTicket)
		r.Post("/fraud/report", h.ReportFraud)
		r.Post("/admin/blacklist", h.BlacklistAddress)
	})

	return r
}
