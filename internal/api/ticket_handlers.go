package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ticket-ledger/internal/auth"
	"ticket-ledger/internal/ledger"
	"ticket-ledger/internal/models"
	"ticket-ledger/internal/utils"
)

// ---------------- Tickets ----------------

func (h *Handler) MintTicket(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	var req models.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	ids, err := h.Ledger.MintTicket(r.Context(), caller, req.EventID, req.Quantity, req.Value)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// demand changed, yesterday's quote is stale
	if h.Quotes != nil {
		if cacheErr := h.Quotes.Invalidate(r.Context(), req.EventID); cacheErr != nil && h.Logger != nil {
			h.Logger.Warn("API", fmt.Sprintf("quote invalidation failed: %v", cacheErr))
		}
	}

	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("tickets minted", map[string]interface{}{
		"ticket_ids": ids,
	}))
}

func (h *Handler) TransferTickets(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	if err := h.Ledger.SafeTransferWithRoyalty(r.Context(), caller, req); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("tickets transferred", nil))
}

func (h *Handler) UseTicket(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	id, err := pathID(r, "ticketID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	var req struct {
		Holder string `json:"holder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	if err := h.Ledger.UseTicket(caller, id, req.Holder); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket used", nil))
}

func (h *Handler) BurnTicket(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	id, err := pathID(r, "ticketID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	if err := h.Ledger.BurnTicket(r.Context(), caller, id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket burned", nil))
}

func (h *Handler) InvalidateTicket(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	id, err := pathID(r, "ticketID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	var req models.InvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	if err := h.Ledger.InvalidateTicket(caller, id, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket invalidated", nil))
}

func (h *Handler) GetTicketProof(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "ticketID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	proof, err := h.Ledger.GetTicketProof(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket proof", map[string]interface{}{
		"proof":      proof,
		"proof_hash": proof.ProofHashHex(),
	}))
}

// VerifyTicket answers yes/no for a claimed owner without saying which
// check failed.
func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "ticketID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	claimedOwner := r.URL.Query().Get("owner")
	valid, hash := h.Ledger.VerifyTicket(id, claimedOwner)

	resp := models.VerifyResponse{TicketID: id, Valid: valid}
	if valid {
		resp.ProofHash = fmt.Sprintf("%x", hash)
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("verification result", resp))
}

func (h *Handler) IsTicketUsed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "ticketID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	used, err := h.Ledger.IsTicketUsed(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("ticket state", map[string]bool{"used": used}))
}

// GetTicketPass renders the caller's encrypted gate pass QR for a ticket.
// Only the current holder can pull a pass.
func (h *Handler) GetTicketPass(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	id, err := pathID(r, "ticketID")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	holder, err := h.Ledger.HolderOf(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if holder != caller {
		h.writeError(w, ledger.ErrNotOwner)
		return
	}

	proof, err := h.Ledger.GetTicketProof(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	png, err := h.Passes.GeneratePassQR(models.PassPayload{
		TicketID:  id,
		EventID:   proof.EventID,
		Holder:    holder,
		ProofHash: proof.ProofHashHex(),
	})
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to generate pass", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// CheckinTicket handles gate check-in: decrypt the scanned pass, verify the
// ticket against the ledger, then mark it used. The caller must be the
// event organizer; UseTicket enforces that.
func (h *Handler) CheckinTicket(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	var req models.CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if req.EncryptedQR == "" {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", "encrypted_qr is required"))
		return
	}

	pass, err := h.Passes.DecryptPayload(req.EncryptedQR)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid QR code", err.Error()))
		return
	}

	valid, _ := h.Ledger.VerifyTicket(pass.TicketID, pass.Holder)
	if !valid {
		h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("check-in rejected", "ticket failed verification"))
		return
	}

	if err := h.Ledger.UseTicket(caller, pass.TicketID, pass.Holder); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("check-in successful", map[string]uint64{"ticket_id": pass.TicketID}))
}

// ---------------- Users / admin ----------------

func (h *Handler) GetUserTickets(w http.ResponseWriter, r *http.Request) {
	address := chiURLParam(r, "address")
	eventID, err := queryID(r, "event_id")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	tickets, err := h.Ledger.GetUserTickets(eventID, address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("user tickets", map[string]interface{}{
		"address":    address,
		"event_id":   eventID,
		"ticket_ids": tickets,
	}))
}

func (h *Handler) IsBlacklisted(w http.ResponseWriter, r *http.Request) {
	address := chiURLParam(r, "address")
	blocked := h.Ledger.IsAddressBlacklisted(address)
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("blacklist state", map[string]bool{"blacklisted": blocked}))
}

func (h *Handler) BlacklistAddress(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	var req models.BlacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	if err := h.Ledger.BlacklistAddress(caller, req.Address, req.Blocked); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("blacklist updated", nil))
}

func (h *Handler) ReportFraud(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())

	var req models.FraudReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	h.Ledger.ReportFraud(caller, req.TicketID, req.Suspect, req.Reason)
	h.writeJSON(w, http.StatusAccepted, utils.SuccessResponse("fraud report recorded", nil))
}
