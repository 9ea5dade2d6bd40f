package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ticket-ledger/internal/archive"
	"ticket-ledger/internal/auth"
	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/logger"
	"ticket-ledger/internal/models"
	"ticket-ledger/internal/passes"
	"ticket-ledger/internal/quotes"
	"ticket-ledger/internal/utils"
)

// Handler wires the ledger's operations to the HTTP surface. Quotes and
// Archive are optional; when nil the price endpoint always hits the ledger
// and the signal listing endpoint returns 404.
type Handler struct {
	Ledger  *ledger.Ledger
	Passes  *passes.Generator
	Quotes  *quotes.Cache
	Archive *archive.Archive
	Logger  *logger.Logger
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps ledger sentinel errors onto HTTP statuses so integrating
// systems can react deterministically.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidParams),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrBatchMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrEventNotFound),
		errors.Is(err, ledger.ErrTicketNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrNotOrganizer),
		errors.Is(err, ledger.ErrNotAdmin),
		errors.Is(err, ledger.ErrNotApproved),
		errors.Is(err, ledger.ErrBlacklisted):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrEventInactive),
		errors.Is(err, ledger.ErrEventAlreadyStarted),
		errors.Is(err, ledger.ErrMaxSupplyExceeded),
		errors.Is(err, ledger.ErrTicketUsed),
		errors.Is(err, ledger.ErrTicketInvalid),
		errors.Is(err, ledger.ErrNotTransferable),
		errors.Is(err, ledger.ErrNotOwner):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrReentrantCall):
		status = http.StatusTooManyRequests
	case errors.Is(err, ledger.ErrInsufficientPayment):
		status = http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrPaymentFailed),
		errors.Is(err, ledger.ErrRoyaltyFailed),
		errors.Is(err, ledger.ErrRefundFailed):
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, utils.ErrorResponse("request failed", err.Error()))
}

func pathID(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// ---------------- Events ----------------

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	id, err := h.Ledger.CreateEvent(caller, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("event created", map[string]uint64{"event_id": id}))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	ev, err := h.Ledger.GetEvent(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("event", ev))
}

func (h *Handler) SetEventStatus(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	id, err := pathID(r, "eventID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	if err := h.Ledger.SetEventStatus(caller, id, req.Active); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("event status updated", nil))
}

func (h *Handler) UpdateEventMetadata(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	id, err := pathID(r, "eventID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	var req struct {
		MetadataURI string `json:"metadata_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	if err := h.Ledger.UpdateEventMetadata(caller, id, req.MetadataURI); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("event metadata updated", nil))
}

func (h *Handler) EmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	id, err := pathID(r, "eventID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	if err := h.Ledger.EmergencyWithdraw(caller, id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("event withdrawn", nil))
}

// GetPrice quotes the current mint price, via the short-TTL redis cache
// when one is configured.
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	if h.Quotes != nil {
		if price, found, cacheErr := h.Quotes.Get(r.Context(), id); cacheErr == nil && found {
			h.writeJSON(w, http.StatusOK, utils.SuccessResponse("price quote (cached)", map[string]int64{"price": price}))
			return
		}
	}

	price, err := h.Ledger.GetDynamicPrice(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.Quotes != nil {
		if cacheErr := h.Quotes.Set(r.Context(), id, price); cacheErr != nil && h.Logger != nil {
			h.Logger.Warn("API", fmt.Sprintf("quote cache set failed: %v", cacheErr))
		}
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("price quote", map[string]int64{"price": price}))
}

func (h *Handler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	available, err := h.Ledger.GetAvailableTickets(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("available tickets", map[string]uint64{"available": available}))
}

// GetSignals lists archived signals for an event.
func (h *Handler) GetSignals(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("not available", "signal archive not configured"))
		return
	}
	id, err := pathID(r, "eventID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	signals, err := h.Archive.Signals(r.Context(), id)
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to load signals", err.Error()))
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("signals", signals))
}
