package sshkeys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/gluk-w/claworc/artifacts/internal/sshtest"
)

func TestParsePrivateKey(t *testing.T) {
	want, keyPEM := sshtest.NewKey(t)

	signer, err := ParsePrivateKey(keyPEM)
	require.NoError(t, err)
	assert.Equal(t, ssh.FingerprintSHA256(want.PublicKey()), ssh.FingerprintSHA256(signer.PublicKey()))
}

func TestParsePrivateKey_Invalid(t *testing.T) {
	_, err := ParsePrivateKey([]byte("not a key"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse private key")
}

func TestLoadIdentity(t *testing.T) {
	t.Run("should load a key written to disk", func(t *testing.T) {
		// given
		_, keyPEM := sshtest.NewKey(t)
		path := filepath.Join(t.TempDir(), "id_ed25519")
		require.NoError(t, os.WriteFile(path, keyPEM, 0o600))

		// when
		signer, err := LoadIdentity(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "ssh-ed25519", signer.PublicKey().Type())
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		_, err := LoadIdentity(filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read identity file")
	})
}
