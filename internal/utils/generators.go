package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GeneratePayoutReference builds a reconciliation reference for an outbound
// payment.
func GeneratePayoutReference(kind string) string {
	return fmt.Sprintf("%s-%s", kind, uuid.New().String())
}

// GenerateRequestID tags an API request for log correlation.
func GenerateRequestID() string {
	return fmt.Sprintf("req_%d_%s", time.Now().Unix(), uuid.New().String()[:8])
}
