package artifact

import (
	"context"
	"fmt"
	"io"
	"os"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/gluk-w/claworc/artifacts/internal/logutil"
	"github.com/gluk-w/claworc/artifacts/internal/sshconn"
)

type targetKind int

const (
	targetFile targetKind = iota
	targetDirectory
)

// resolvedTarget is a remote path classified by what the server says it is.
type resolvedTarget struct {
	kind targetKind
	path string
}

func (r *Repository) resolveTarget(ch sshconn.Channel, artifactPath string) (resolvedTarget, error) {
	p := r.resolveFolder(artifactPath)
	fi, err := ch.Stat(p)
	if err != nil {
		return resolvedTarget{}, fmt.Errorf("%w: stat %s on %s: %w", ErrDownload, p, r.host(), err)
	}
	switch {
	case fi.IsDir():
		return resolvedTarget{kind: targetDirectory, path: p}, nil
	case fi.Mode().IsRegular():
		return resolvedTarget{kind: targetFile, path: p}, nil
	default:
		return resolvedTarget{}, fmt.Errorf("%w: %s on %s is neither a file nor a directory (%s)", ErrDownload, p, r.host(), fi.Mode().Type())
	}
}

// DownloadArtifacts fetches artifactPath (empty for the root). A remote file
// is written to a new temp file; a remote folder has its regular files
// written to a new temp directory, subdirectories excluded. The returned
// local path belongs to the caller.
func (r *Repository) DownloadArtifacts(ctx context.Context, artifactPath string) (string, error) {
	var local string
	err := r.run(OpDownloadArtifacts, artifactPath, func(ev *Event) error {
		return r.conn.WithConnection(ctx, func(ch sshconn.Channel) error {
			target, err := r.resolveTarget(ch, artifactPath)
			if err != nil {
				return err
			}

			switch target.kind {
			case targetDirectory:
				local, err = r.downloadDirectory(ch, target.path, ev)
			default:
				local, err = r.downloadFile(ch, target.path, ev)
			}
			return err
		})
	})
	if err != nil {
		return "", err
	}
	return local, nil
}

func (r *Repository) downloadFile(ch sshconn.Channel, remote string, ev *Event) (string, error) {
	tmp, err := os.CreateTemp("", "artifact.*.sftp.obj")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrLocalIO, err)
	}
	local := tmp.Name()

	n, err := r.fetch(ch, remote, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: close %s: %w", ErrLocalIO, local, cerr)
	}
	if err != nil {
		os.Remove(local)
		return "", err
	}

	ev.Files = 1
	ev.Bytes = n
	return local, nil
}

func (r *Repository) downloadDirectory(ch sshconn.Channel, remote string, ev *Event) (string, error) {
	entries, err := ch.ReadDir(remote)
	if err != nil {
		return "", fmt.Errorf("%w: list %s on %s: %w", ErrDownload, remote, r.host(), err)
	}

	dir, err := os.MkdirTemp("", "artifacts.*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp directory: %w", ErrLocalIO, err)
	}

	for _, e := range entries {
		if isPseudoEntry(e.Name()) || !e.Mode().IsRegular() {
			continue
		}

		n, err := r.downloadInto(ch, joinRemote(remote, e.Name()), dir, e.Name())
		if err != nil {
			os.RemoveAll(dir)
			return "", err
		}
		ev.Files++
		ev.Bytes += n
	}
	return dir, nil
}

func (r *Repository) downloadInto(ch sshconn.Channel, remote, dir, name string) (int64, error) {
	// Names come from the server; keep them inside dir.
	dst, err := securejoin.SecureJoin(dir, name)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve local path for %q: %w", ErrLocalIO, logutil.SanitizeForLog(name), err)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %w", ErrLocalIO, dst, err)
	}

	n, err := r.fetch(ch, remote, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: close %s: %w", ErrLocalIO, dst, cerr)
	}
	return n, err
}

// fetch copies remote into w. Copy failures are reported as download errors
// since the remote side is the usual culprit.
func (r *Repository) fetch(ch sshconn.Channel, remote string, w io.Writer) (int64, error) {
	src, err := ch.Open(remote)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s on %s: %w", ErrDownload, remote, r.host(), err)
	}
	defer src.Close()

	n, err := io.Copy(w, src)
	if err != nil {
		return n, fmt.Errorf("%w: read %s on %s: %w", ErrDownload, remote, r.host(), err)
	}
	return n, nil
}
