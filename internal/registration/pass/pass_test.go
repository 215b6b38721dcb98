package pass

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rani-Boora/campus-event-hub/internal/models"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

func TestGenerate_ApprovedRegistrationGetsPNG(t *testing.T) {
	gen := NewGenerator("test-secret")

	reg := models.Registration{
		ID:      "reg-1",
		EventID: "event-1",
		UserID:  "user-1",
		Status:  models.StatusApproved,
	}

	png, err := gen.Generate(reg)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic), "Output should be a PNG image")
}

func TestGenerate_OnlyApprovedGetsAPass(t *testing.T) {
	gen := NewGenerator("test-secret")

	for _, status := range []string{models.StatusPending, models.StatusRejected} {
		reg := models.Registration{ID: "reg-1", EventID: "event-1", UserID: "user-1", Status: status}
		_, err := gen.Generate(reg)
		assert.ErrorIs(t, err, ErrNotApproved, "status %s should not yield a pass", status)
	}
}

func TestGenerate_AnySecretLengthWorks(t *testing.T) {
	// Secrets are hashed to a fixed AES key size, so arbitrary strings work.
	for _, secret := range []string{"", "x", "a-much-longer-secret-phrase-than-32-bytes-for-sure"} {
		gen := NewGenerator(secret)
		reg := models.Registration{ID: "reg-1", EventID: "event-1", UserID: "user-1", Status: models.StatusApproved}
		_, err := gen.Generate(reg)
		assert.NoError(t, err)
	}
}
