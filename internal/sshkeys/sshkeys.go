package sshkeys

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// ParsePrivateKey parses a PEM-encoded private key into an ssh.Signer.
func ParsePrivateKey(privateKeyPEM []byte) (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return signer, nil
}

// LoadIdentity reads an unencrypted private key file (OpenSSH or PKCS#8 PEM)
// and returns a signer for public key authentication.
func LoadIdentity(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read identity file: %w", err)
	}
	return ParsePrivateKey(data)
}
