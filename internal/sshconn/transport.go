package sshconn

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
)

// ErrConnection is returned when a session or channel cannot be established.
var ErrConnection = errors.New("connection error")

// DefaultPort is used when the repository URI has no port.
const DefaultPort = 22

// Endpoint is where and as whom to connect.
type Endpoint struct {
	Host        string
	Port        int
	Credentials Credentials
}

// Address returns host:port.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Dialer establishes authenticated sessions.
type Dialer interface {
	Dial(ctx context.Context, ep Endpoint) (Session, error)
}

// Session is an authenticated transport connection. It is not shared
// between repository operations.
type Session interface {
	OpenChannel() (Channel, error)
	Close() error
}

// Channel is a file-transfer channel multiplexed over a Session. A Channel
// must not be used from more than one goroutine at a time.
type Channel interface {
	// Create opens path for writing, truncating an existing file.
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, error)
	ReadDir(path string) ([]os.FileInfo, error)
	Stat(path string) (os.FileInfo, error)
	// Mkdir creates a single directory; parents are not created.
	Mkdir(path string) error
	Close() error
}
