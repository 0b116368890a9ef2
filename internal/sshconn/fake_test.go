package sshconn

import (
	"context"
	"io"
	"os"
	"sync"
)

// callLog records transport calls in order across a fake dialer, its
// sessions and channels.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) count(call string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeDialer struct {
	log             *callLog
	dialErr         error
	openErr         error
	sessionCloseErr error
	channelCloseErr error
	lastEndpoint    Endpoint
}

func (d *fakeDialer) Dial(_ context.Context, ep Endpoint) (Session, error) {
	d.log.add("dial")
	d.lastEndpoint = ep
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return &fakeSession{d: d}, nil
}

type fakeSession struct {
	d *fakeDialer
}

func (s *fakeSession) OpenChannel() (Channel, error) {
	s.d.log.add("open-channel")
	if s.d.openErr != nil {
		return nil, s.d.openErr
	}
	return &fakeChannel{d: s.d}, nil
}

func (s *fakeSession) Close() error {
	s.d.log.add("close-session")
	return s.d.sessionCloseErr
}

type fakeChannel struct {
	d *fakeDialer
}

func (c *fakeChannel) Create(string) (io.WriteCloser, error)  { return nil, os.ErrPermission }
func (c *fakeChannel) Open(string) (io.ReadCloser, error)     { return nil, os.ErrNotExist }
func (c *fakeChannel) ReadDir(string) ([]os.FileInfo, error)  { return nil, nil }
func (c *fakeChannel) Stat(string) (os.FileInfo, error)       { return nil, os.ErrNotExist }
func (c *fakeChannel) Mkdir(string) error                     { return nil }

func (c *fakeChannel) Close() error {
	c.d.log.add("close-channel")
	return c.d.channelCloseErr
}
