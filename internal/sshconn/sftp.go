package sshconn

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// defaultConnectTimeout bounds dial plus handshake when the caller gives none.
const defaultConnectTimeout = 30 * time.Second

// SSHDialerConfig configures an SSHDialer.
type SSHDialerConfig struct {
	// HostKeyCallback checks the server key. Required; see sshkeys.HostKeyCallback.
	HostKeyCallback ssh.HostKeyCallback

	// Signer enables public key authentication in addition to the password
	// from the URI.
	Signer ssh.Signer

	// Timeout bounds dial and handshake. Zero means 30s.
	Timeout time.Duration

	// ClientOptions are passed to sftp.NewClient for every channel.
	ClientOptions []sftp.ClientOption
}

// SSHDialer dials SSH servers and speaks SFTP over them.
type SSHDialer struct {
	cfg SSHDialerConfig
}

// NewSSHDialer creates an SSHDialer.
func NewSSHDialer(cfg SSHDialerConfig) *SSHDialer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultConnectTimeout
	}
	if cfg.HostKeyCallback == nil {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return &SSHDialer{cfg: cfg}
}

func (d *SSHDialer) authMethods(creds Credentials) []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if d.cfg.Signer != nil {
		methods = append(methods, ssh.PublicKeys(d.cfg.Signer))
	}
	if password, ok := creds.Password(); ok {
		methods = append(methods,
			ssh.Password(password),
			// Some servers only offer keyboard-interactive for passwords.
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}
	return methods
}

// Dial connects and authenticates to ep. The context bounds dialing and the
// SSH handshake only.
func (d *SSHDialer) Dial(ctx context.Context, ep Endpoint) (Session, error) {
	cfg := &ssh.ClientConfig{
		User:            ep.Credentials.Username,
		Auth:            d.authMethods(ep.Credentials),
		HostKeyCallback: d.cfg.HostKeyCallback,
		Timeout:         d.cfg.Timeout,
	}

	addr := ep.Address()

	dialer := net.Dialer{Timeout: d.cfg.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	deadline := time.Now().Add(d.cfg.Timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := netConn.SetDeadline(deadline); err != nil {
		netConn.Close()
		return nil, fmt.Errorf("set handshake deadline for %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := handshake(ctx, netConn, addr, cfg)
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	if err := netConn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, fmt.Errorf("clear handshake deadline for %s: %w", addr, err)
	}

	return &sshSession{client: ssh.NewClient(sshConn, chans, reqs), opts: d.cfg.ClientOptions}, nil
}

// handshake runs ssh.NewClientConn, closing netConn if ctx ends first.
func handshake(ctx context.Context, netConn net.Conn, addr string, cfg *ssh.ClientConfig) (ssh.Conn, <-chan ssh.NewChannel, <-chan *ssh.Request, error) {
	stop := make(chan struct{})
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		select {
		case <-ctx.Done():
			netConn.Close()
		case <-stop:
		}
	}()

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, cfg)
	close(stop)
	<-watched

	if ctxErr := ctx.Err(); ctxErr != nil {
		// The watcher may have closed the socket after a successful handshake.
		if err == nil {
			sshConn.Close()
			return nil, nil, nil, ctxErr
		}
		return nil, nil, nil, fmt.Errorf("%w: %w", ctxErr, err)
	}
	return sshConn, chans, reqs, err
}

type sshSession struct {
	client *ssh.Client
	opts   []sftp.ClientOption
}

func (s *sshSession) OpenChannel() (Channel, error) {
	c, err := sftp.NewClient(s.client, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("open sftp channel: %w", err)
	}
	return &sftpChannel{client: c}, nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

// sftpChannel adapts *sftp.Client to Channel.
type sftpChannel struct {
	client *sftp.Client
}

func (c *sftpChannel) Create(path string) (io.WriteCloser, error) {
	f, err := c.client.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (c *sftpChannel) Open(path string) (io.ReadCloser, error) {
	f, err := c.client.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (c *sftpChannel) ReadDir(path string) ([]os.FileInfo, error) {
	return c.client.ReadDir(path)
}

func (c *sftpChannel) Stat(path string) (os.FileInfo, error) {
	return c.client.Stat(path)
}

func (c *sftpChannel) Mkdir(path string) error {
	return c.client.Mkdir(path)
}

func (c *sftpChannel) Close() error {
	return c.client.Close()
}
