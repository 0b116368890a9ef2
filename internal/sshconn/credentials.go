package sshconn

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidCredentials is returned when URI user-info cannot be turned into
// credentials.
var ErrInvalidCredentials = errors.New("invalid credentials format")

// Credentials are the username and optional password embedded in a
// repository URI.
type Credentials struct {
	Username string

	password    string
	hasPassword bool
}

// NewCredentials builds credentials with a password.
func NewCredentials(username, password string) Credentials {
	return Credentials{Username: username, password: password, hasPassword: true}
}

// Password returns the password and whether one was given. An empty password
// ("user:") counts as given.
func (c Credentials) Password() (string, bool) {
	return c.password, c.hasPassword
}

// String never includes the password.
func (c Credentials) String() string {
	if c.hasPassword {
		return c.Username + ":<redacted>"
	}
	return c.Username
}

// ParseUserInfo splits raw user-info of the form "user" or "user:pass".
// Everything after the first colon is the password; nothing is decoded.
func ParseUserInfo(raw string) (Credentials, error) {
	if raw == "" {
		return Credentials{}, fmt.Errorf("%w: user info is empty", ErrInvalidCredentials)
	}

	user, pass, found := strings.Cut(raw, ":")
	if !found {
		return Credentials{Username: user}, nil
	}
	return NewCredentials(user, pass), nil
}

// CredentialsFromURL extracts credentials from u's user-info. Percent
// escapes in the URI are already decoded by url.Parse.
func CredentialsFromURL(u *url.URL) (Credentials, error) {
	if u == nil || u.User == nil {
		return Credentials{}, fmt.Errorf("%w: no user info in repository URI", ErrInvalidCredentials)
	}

	username := u.User.Username()
	password, hasPassword := u.User.Password()
	if username == "" && !hasPassword {
		return Credentials{}, fmt.Errorf("%w: user info is empty", ErrInvalidCredentials)
	}
	if !hasPassword {
		return Credentials{Username: username}, nil
	}
	return NewCredentials(username, password), nil
}
