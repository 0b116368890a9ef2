package artifact

import (
	"errors"

	"github.com/gluk-w/claworc/artifacts/internal/sshconn"
)

var (
	ErrInvalidCredentials = sshconn.ErrInvalidCredentials
	ErrConnection         = sshconn.ErrConnection

	// ErrRemoteDirectoryMissing means the parent of an upload target could
	// not be created because its own parent does not exist. Only one
	// directory level is ever created.
	ErrRemoteDirectoryMissing = errors.New("remote directory missing")

	ErrUpload   = errors.New("upload failed")
	ErrList     = errors.New("list failed")
	ErrDownload = errors.New("download failed")
	ErrLocalIO  = errors.New("local i/o error")
)
