package artifact

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gluk-w/claworc/artifacts/internal/sshconn"
)

// memFS is a tiny remote filesystem shared by all sessions of a memDialer.
type memFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	// withPseudoEntries makes ReadDir return "." and ".." like OpenSSH does.
	withPseudoEntries bool
}

func newMemFS(dirs ...string) *memFS {
	fs := &memFS{files: map[string][]byte{}, dirs: map[string]bool{"/": true}}
	for _, d := range dirs {
		fs.dirs[d] = true
	}
	return fs
}

type memDialer struct {
	fs *memFS

	mu            sync.Mutex
	dials         int
	sessionCloses int
	channelOpens  int
	channelCloses int

	dialErr error
	openErr error
}

func (d *memDialer) count(n *int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *n
}

func (d *memDialer) Dial(context.Context, sshconn.Endpoint) (sshconn.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return &memSession{d: d}, nil
}

type memSession struct{ d *memDialer }

func (s *memSession) OpenChannel() (sshconn.Channel, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.channelOpens++
	if s.d.openErr != nil {
		return nil, s.d.openErr
	}
	return &memChannel{d: s.d, fs: s.d.fs}, nil
}

func (s *memSession) Close() error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.sessionCloses++
	return nil
}

type memChannel struct {
	d  *memDialer
	fs *memFS
}

type memFileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi memFileInfo) Name() string { return fi.name }
func (fi memFileInfo) Size() int64  { return fi.size }
func (fi memFileInfo) Mode() os.FileMode {
	if fi.dir {
		return os.ModeDir | 0o755
	}
	return 0o644
}
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return fi.dir }
func (fi memFileInfo) Sys() any           { return nil }

type memWriter struct {
	bytes.Buffer
	fs   *memFS
	path string
}

func (w *memWriter) Close() error {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	w.fs.files[w.path] = append([]byte(nil), w.Bytes()...)
	return nil
}

func parentOf(p string) string {
	return remoteParent(p)
}

func (c *memChannel) Create(path string) (io.WriteCloser, error) {
	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()
	if !c.fs.dirs[parentOf(path)] {
		return nil, os.ErrNotExist
	}
	return &memWriter{fs: c.fs, path: path}, nil
}

func (c *memChannel) Open(path string) (io.ReadCloser, error) {
	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()
	data, ok := c.fs.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *memChannel) ReadDir(path string) ([]os.FileInfo, error) {
	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()
	if !c.fs.dirs[path] {
		return nil, os.ErrNotExist
	}

	var out []os.FileInfo
	if c.fs.withPseudoEntries {
		out = append(out, memFileInfo{name: ".", dir: true}, memFileInfo{name: "..", dir: true})
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p, data := range c.fs.files {
		if name, ok := strings.CutPrefix(p, prefix); ok && !strings.Contains(name, "/") {
			out = append(out, memFileInfo{name: name, size: int64(len(data))})
		}
	}
	for d := range c.fs.dirs {
		if name, ok := strings.CutPrefix(d, prefix); ok && name != "" && !strings.Contains(name, "/") {
			out = append(out, memFileInfo{name: name, dir: true})
		}
	}
	// Reverse order so callers cannot rely on sorted output.
	sort.Slice(out, func(i, j int) bool { return out[i].Name() > out[j].Name() })
	return out, nil
}

func (c *memChannel) Stat(path string) (os.FileInfo, error) {
	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()
	if c.fs.dirs[path] {
		return memFileInfo{name: path, dir: true}, nil
	}
	if data, ok := c.fs.files[path]; ok {
		return memFileInfo{name: path, size: int64(len(data))}, nil
	}
	return nil, os.ErrNotExist
}

func (c *memChannel) Mkdir(path string) error {
	c.fs.mu.Lock()
	defer c.fs.mu.Unlock()
	if c.fs.dirs[path] {
		return os.ErrExist
	}
	if !c.fs.dirs[parentOf(path)] {
		return os.ErrNotExist
	}
	c.fs.dirs[path] = true
	return nil
}

func (c *memChannel) Close() error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.channelCloses++
	return nil
}

// recorder collects events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
