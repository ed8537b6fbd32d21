package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expiresAt, err := signer.Generate("fee-1", "RCPT-26080001.pdf")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	receiptID, relPath, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "fee-1", receiptID)
	assert.Equal(t, "RCPT-26080001.pdf", relPath)
	assert.Equal(t, expiresAt.Unix(), parsedExpiry.Unix())
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, _, err := signer.Generate("fee-1", "RCPT-26080001.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "fee-2"
	_, _, _, err = signer.Parse(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestSignedURLRejectsWrongSecret(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	other := NewSignedURLSigner("other-secret", time.Minute)

	token, _, err := signer.Generate("fee-1", "RCPT-26080001.pdf")
	require.NoError(t, err)

	_, _, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestSignedURLRejectsExpiredToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	signer.ttl = -time.Minute

	token, _, err := signer.Generate("fee-1", "RCPT-26080001.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestSignedURLRejectsMalformedToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	_, _, _, err := signer.Parse("not-a-token")
	require.Error(t, err)
}

func TestReceiptArchiveSaveAndOpen(t *testing.T) {
	archive, err := NewReceiptArchive(t.TempDir())
	require.NoError(t, err)

	relPath, err := archive.Save("RCPT-26080001.pdf", []byte("%PDF-1.4 test"))
	require.NoError(t, err)
	assert.Equal(t, "RCPT-26080001.pdf", relPath)
	assert.True(t, archive.Exists(relPath))
	assert.True(t, strings.HasSuffix(archive.Path(relPath), "RCPT-26080001.pdf"))

	file, err := archive.Open(relPath)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, archive.Delete(relPath))
	assert.False(t, archive.Exists(relPath))
	// Deleting a missing file is not an error.
	require.NoError(t, archive.Delete(relPath))
}
