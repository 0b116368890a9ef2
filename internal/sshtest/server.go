// Package sshtest runs an in-process SSH server exposing the SFTP subsystem
// over the local filesystem. It is meant for tests only.
package sshtest

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Options configures which clients the server lets in.
type Options struct {
	Username string
	Password string

	// AuthorizedKey, when set, also allows public key authentication.
	AuthorizedKey ssh.PublicKey
}

// Server is a running test server. Files are read and written on the real
// filesystem, so tests should point clients at paths under t.TempDir().
type Server struct {
	Host    string
	Port    int
	HostKey ssh.PublicKey

	opts     Options
	listener net.Listener
	done     chan struct{}

	mu           sync.Mutex
	conns        []net.Conn
	active       int
	total        int
	authFailures int
}

// NewServer starts a server on 127.0.0.1 and stops it when the test ends.
func NewServer(t testing.TB, opts Options) *Server {
	t.Helper()

	hostSigner, _ := NewKey(t)

	config := &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if conn.User() == opts.Username && string(password) == opts.Password {
				return &ssh.Permissions{}, nil
			}
			return nil, fmt.Errorf("password rejected for %q", conn.User())
		},
	}
	if opts.AuthorizedKey != nil {
		config.PublicKeyCallback = func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if conn.User() == opts.Username && ssh.FingerprintSHA256(key) == ssh.FingerprintSHA256(opts.AuthorizedKey) {
				return &ssh.Permissions{}, nil
			}
			return nil, fmt.Errorf("unknown public key")
		}
	}
	config.AddHostKey(hostSigner)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	s := &Server{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		HostKey:  hostSigner.PublicKey(),
		opts:     opts,
		listener: listener,
		done:     make(chan struct{}),
	}

	go s.serve(config)
	t.Cleanup(s.Close)
	return s
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URI builds an sftp:// URI for basePath using the server's credentials.
func (s *Server) URI(basePath string) string {
	return s.URIWithUser(url.UserPassword(s.opts.Username, s.opts.Password), basePath)
}

// URIWithUser builds an sftp:// URI with arbitrary user-info.
func (s *Server) URIWithUser(user *url.Userinfo, basePath string) string {
	u := url.URL{Scheme: "sftp", User: user, Host: s.Addr(), Path: basePath}
	return u.String()
}

// ActiveConnections is the number of authenticated connections still open.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// TotalConnections is the number of authenticated connections ever accepted.
func (s *Server) TotalConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// AuthFailures is the number of connections that failed the handshake.
func (s *Server) AuthFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authFailures
}

// Close stops accepting connections and drops the open ones.
func (s *Server) Close() {
	s.listener.Close()
	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Server) serve(config *ssh.ServerConfig) {
	defer close(s.done)
	for {
		netConn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, netConn)
		s.mu.Unlock()
		go s.handleConn(netConn, config)
	}
}

func (s *Server) handleConn(netConn net.Conn, config *ssh.ServerConfig) {
	sshConn, chans, reqs, err := ssh.NewServerConn(netConn, config)
	if err != nil {
		netConn.Close()
		s.mu.Lock()
		s.authFailures++
		s.mu.Unlock()
		return
	}
	defer sshConn.Close()

	s.mu.Lock()
	s.active++
	s.total++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, requests, err := newChan.Accept()
		if err != nil {
			continue
		}
		go handleSession(ch, requests)
	}
}

func handleSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()

	go func() {
		for req := range requests {
			// Payload is an SSH string: uint32 length followed by the name.
			ok := req.Type == "subsystem" && len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp"
			if req.WantReply {
				req.Reply(ok, nil)
			}
		}
	}()

	server, err := sftp.NewServer(ch)
	if err != nil {
		return
	}
	server.Serve()
	server.Close()
}
