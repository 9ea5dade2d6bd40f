package passes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-ledger/internal/models"
	"ticket-ledger/internal/passes"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	g := passes.NewGenerator("gate-secret")

	pass := models.PassPayload{
		TicketID:  42,
		EventID:   7,
		Holder:    "alice",
		ProofHash: "deadbeef",
	}

	encrypted, err := g.EncryptPayload(pass)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "alice", "payload must not be readable in the ciphertext")

	decrypted, err := g.DecryptPayload(encrypted)
	require.NoError(t, err)
	assert.Equal(t, pass, *decrypted)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	issuer := passes.NewGenerator("gate-secret")
	attacker := passes.NewGenerator("other-secret")

	encrypted, err := issuer.EncryptPayload(models.PassPayload{TicketID: 1, EventID: 1, Holder: "alice"})
	require.NoError(t, err)

	// Wrong key yields garbage that fails the JSON decode.
	_, err = attacker.DecryptPayload(encrypted)
	assert.Error(t, err)
}

func TestDecryptRejectsMalformedInput(t *testing.T) {
	g := passes.NewGenerator("gate-secret")

	_, err := g.DecryptPayload("not-base64!!!")
	assert.Error(t, err)

	_, err = g.DecryptPayload("c2hvcnQ=") // valid base64, shorter than one AES block
	assert.Error(t, err)
}

func TestGeneratePassQRProducesPNG(t *testing.T) {
	g := passes.NewGenerator("gate-secret")

	png, err := g.GeneratePassQR(models.PassPayload{TicketID: 42, EventID: 7, Holder: "alice"})
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
