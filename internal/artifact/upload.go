package artifact

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/gluk-w/claworc/artifacts/internal/logutil"
	"github.com/gluk-w/claworc/artifacts/internal/sshconn"
)

type uploadResult struct {
	bytes  int64
	digest digest.Digest
}

// LogArtifact uploads localFile under artifactPath (empty for the root),
// replacing any remote file of the same name.
func (r *Repository) LogArtifact(ctx context.Context, localFile, artifactPath string) error {
	return r.run(OpLogArtifact, artifactPath, func(ev *Event) error {
		return r.conn.WithConnection(ctx, func(ch sshconn.Channel) error {
			res, err := r.copyFile(ch, localFile, artifactPath)
			if err != nil {
				return err
			}
			ev.Files = 1
			ev.Bytes = res.bytes
			ev.Digest = res.digest.String()
			return nil
		})
	})
}

// LogArtifacts uploads every regular file directly inside localDir under
// artifactPath. Subdirectories are not uploaded. The first failure aborts
// the batch; files already sent stay on the server.
func (r *Repository) LogArtifacts(ctx context.Context, localDir, artifactPath string) error {
	return r.run(OpLogArtifacts, artifactPath, func(ev *Event) error {
		files, err := regularFiles(localDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			r.log.Debugf("no files to upload in %s", logutil.SanitizeForLog(localDir))
			return nil
		}

		var mu sync.Mutex
		done := func(res uploadResult) {
			mu.Lock()
			defer mu.Unlock()
			ev.Files++
			ev.Bytes += res.bytes
		}

		if r.concurrency < 2 || len(files) == 1 {
			return r.conn.WithConnection(ctx, func(ch sshconn.Channel) error {
				for _, f := range files {
					res, err := r.copyFile(ch, f, artifactPath)
					if err != nil {
						return err
					}
					done(res)
				}
				return nil
			})
		}

		return r.conn.WithSession(ctx, func(sess sshconn.Session) error {
			return r.uploadParallel(ctx, sess, files, artifactPath, done)
		})
	})
}

// uploadParallel sends files over sess with one channel per transfer, since
// a channel is not safe for concurrent use.
func (r *Repository) uploadParallel(ctx context.Context, sess sshconn.Session, files []string, artifactPath string, done func(uploadResult)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ch, err := r.conn.OpenChannel(sess)
			if err != nil {
				return err
			}
			defer r.conn.CloseChannel(ch)

			res, err := r.copyFile(ch, f, artifactPath)
			if err != nil {
				return err
			}
			done(res)
			return nil
		})
	}
	return g.Wait()
}

func regularFiles(localDir string) ([]string, error) {
	entries, err := os.ReadDir(localDir)
	if err != nil {
		return nil, fmt.Errorf("%w: read directory %s: %w", ErrLocalIO, localDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(localDir, e.Name()))
		}
	}
	return files, nil
}

// copyFile streams one local file to the server.
func (r *Repository) copyFile(ch sshconn.Channel, localFile, artifactPath string) (uploadResult, error) {
	target := r.resolveFile(localFile, artifactPath)

	src, err := os.Open(localFile)
	if err != nil {
		return uploadResult{}, fmt.Errorf("%w: open %s: %w", ErrLocalIO, localFile, err)
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return uploadResult{}, fmt.Errorf("%w: stat %s: %w", ErrLocalIO, localFile, err)
	}
	if !fi.Mode().IsRegular() {
		return uploadResult{}, fmt.Errorf("%w: %s is not a regular file", ErrLocalIO, localFile)
	}

	if artifactPath != "" {
		if err := r.ensureParent(ch, target); err != nil {
			return uploadResult{}, err
		}
	}

	dst, err := ch.Create(target)
	if err != nil {
		return uploadResult{}, r.uploadError(localFile, target, err)
	}

	digester := digest.Canonical.Digester()
	n, err := io.Copy(dst, io.TeeReader(src, digester.Hash()))
	if err != nil {
		dst.Close()
		return uploadResult{}, r.uploadError(localFile, target, err)
	}
	// Close flushes outstanding writes; its error is a failed upload.
	if err := dst.Close(); err != nil {
		return uploadResult{}, r.uploadError(localFile, target, err)
	}

	r.log.Debugf("uploaded %s to %s (%d bytes, %s)", logutil.SanitizeForLog(localFile), logutil.SanitizeForLog(target), n, digester.Digest())
	return uploadResult{bytes: n, digest: digester.Digest()}, nil
}

// ensureParent creates the directory holding target when it is missing.
// Only that one directory is created.
func (r *Repository) ensureParent(ch sshconn.Channel, target string) error {
	parent := remoteParent(target)
	if _, err := ch.Stat(parent); err == nil {
		return nil
	}

	mkErr := ch.Mkdir(parent)
	if mkErr == nil {
		return nil
	}

	grandparent := remoteParent(parent)
	if _, err := ch.Stat(grandparent); err != nil {
		return fmt.Errorf("%w: %w: create %s on %s: %s does not exist: %w",
			ErrUpload, ErrRemoteDirectoryMissing, parent, r.host(), grandparent, mkErr)
	}
	// Another upload may have created it in the meantime.
	if fi, err := ch.Stat(parent); err == nil && fi.IsDir() {
		return nil
	}
	return fmt.Errorf("%w: create %s on %s: %w", ErrUpload, parent, r.host(), mkErr)
}

func (r *Repository) uploadError(localFile, target string, err error) error {
	return fmt.Errorf("%w: copy %s to %s on %s: %w", ErrUpload, localFile, target, r.host(), err)
}
