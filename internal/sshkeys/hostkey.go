package sshkeys

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// FingerprintMismatchError is returned when the server's host key does not
// match the pinned fingerprint.
type FingerprintMismatchError struct {
	Host     string
	Expected string
	Actual   string
}

func (e *FingerprintMismatchError) Error() string {
	return fmt.Sprintf("host key fingerprint mismatch for %s: expected %s, got %s (possible MITM attack)", e.Host, e.Expected, e.Actual)
}

// HostKeyOptions selects how the server's host key is checked.
//
// With Verify unset every host key is accepted. This is the historical
// behaviour of the SFTP artifact store and is only suitable on trusted
// networks. With Verify set, a pinned Fingerprint ("SHA256:...") takes
// precedence over KnownHostsFile; an empty KnownHostsFile means
// ~/.ssh/known_hosts.
type HostKeyOptions struct {
	Verify         bool
	KnownHostsFile string
	Fingerprint    string
}

// HostKeyCallback builds the ssh.HostKeyCallback for opts.
func HostKeyCallback(opts HostKeyOptions) (ssh.HostKeyCallback, error) {
	if !opts.Verify {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	if opts.Fingerprint != "" {
		return pinnedCallback(opts.Fingerprint), nil
	}

	path := opts.KnownHostsFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}

	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts %s: %w", path, err)
	}
	return cb, nil
}

func pinnedCallback(expected string) ssh.HostKeyCallback {
	return func(hostname string, _ net.Addr, key ssh.PublicKey) error {
		actual := ssh.FingerprintSHA256(key)
		if actual != expected {
			logger.WithField("component", "sshkeys").Warnf("host key fingerprint mismatch for %s: expected %s, got %s", hostname, expected, actual)
			return &FingerprintMismatchError{Host: hostname, Expected: expected, Actual: actual}
		}
		return nil
	}
}
