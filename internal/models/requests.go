package models

// CreateEventRequest carries the organizer-supplied parameters for a new event.
// Times are Unix seconds; prices are integer minor units.
type CreateEventRequest struct {
	Name           string `json:"name"`
	MetadataURI    string `json:"metadata_uri"`
	MaxSupply      uint64 `json:"max_supply"`
	BasePrice      int64  `json:"base_price"`
	StartTime      int64  `json:"start_time"`
	EndTime        int64  `json:"end_time"`
	Transferable   bool   `json:"transferable"`
	DynamicPricing bool   `json:"dynamic_pricing"`
	RoyaltyBps     int64  `json:"royalty_bps"`
	Verifier       string `json:"verifier,omitempty"`
}

// MintRequest mints quantity tickets for an event. Value is the payment
// sent with the call; anything above quoted price * quantity is refunded.
type MintRequest struct {
	EventID  uint64 `json:"event_id"`
	Quantity uint64 `json:"quantity"`
	Value    int64  `json:"value"`
}

// TransferRequest moves specific tickets between holders. Value, when
// non-zero, is the negotiated resale price and is split between the
// organizer (royalty) and the seller.
type TransferRequest struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	EventID   uint64   `json:"event_id"`
	Quantity  int      `json:"quantity"`
	TicketIDs []uint64 `json:"ticket_ids"`
	Value     int64    `json:"value"`
}

type VerifyResponse struct {
	TicketID  uint64 `json:"ticket_id"`
	Valid     bool   `json:"valid"`
	ProofHash string `json:"proof_hash,omitempty"`
}

type BlacklistRequest struct {
	Address string `json:"address"`
	Blocked bool   `json:"blocked"`
}

type InvalidateRequest struct {
	Reason string `json:"reason"`
}

type FraudReportRequest struct {
	TicketID uint64 `json:"ticket_id,omitempty"`
	Suspect  string `json:"suspect,omitempty"`
	Reason   string `json:"reason"`
}

// CheckinRequest carries the AES-encrypted QR payload scanned at the gate.
type CheckinRequest struct {
	EncryptedQR string `json:"encrypted_qr"`
}

// PassPayload is what gets encrypted into a gate pass QR code.
type PassPayload struct {
	TicketID  uint64 `json:"ticket_id"`
	EventID   uint64 `json:"event_id"`
	Holder    string `json:"holder"`
	ProofHash string `json:"proof_hash"`
}
