// Package sshconn opens SSH sessions and SFTP channels for the artifact
// repository, one pair per repository operation.
//
// The transport is reached through three small interfaces so the repository
// can be exercised without a server:
//
//   - [Dialer] authenticates to host:port and returns a [Session].
//   - [Session] is one SSH connection; it multiplexes any number of channels.
//   - [Channel] is one SFTP subsystem channel (put, get, list, stat, mkdir).
//
// [SSHDialer] is the production implementation built on golang.org/x/crypto/ssh
// and github.com/pkg/sftp.
//
// # Scoping
//
// [Manager.WithConnection] dials, opens a channel, runs the callback and then
// closes the channel and the session in that order, whatever the callback
// returned. Teardown errors are logged at warn level and never replace the
// callback's error. Nothing is pooled: two concurrent operations hold two
// independent sessions.
//
// # Credentials
//
// [ParseUserInfo] splits raw user-info on its first colon, so passwords may
// themselves contain colons; it decodes nothing. [CredentialsFromURL] reads
// the already decoded user and password of a parsed URI. A URI without
// user-info is rejected with [ErrInvalidCredentials]; anonymous logins are not
// supported.
package sshconn
