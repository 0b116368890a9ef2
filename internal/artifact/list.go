package artifact

import (
	"context"
	"fmt"

	"github.com/gluk-w/claworc/artifacts/internal/sshconn"
)

// FileInfo is one entry of an artifact listing. Path is the entry name
// relative to the listed folder.
type FileInfo struct {
	Path     string `json:"path" yaml:"path"`
	FileSize int64  `json:"file_size" yaml:"file_size"`
	IsDir    bool   `json:"is_dir" yaml:"is_dir"`
}

// isPseudoEntry reports the self and parent entries some servers return.
func isPseudoEntry(name string) bool {
	return name == "." || name == ".."
}

// ListArtifacts lists the direct children of artifactPath (empty for the
// root) in the order the server returns them.
func (r *Repository) ListArtifacts(ctx context.Context, artifactPath string) ([]FileInfo, error) {
	var result []FileInfo
	err := r.run(OpListArtifacts, artifactPath, func(ev *Event) error {
		folder := r.resolveFolder(artifactPath)
		return r.conn.WithConnection(ctx, func(ch sshconn.Channel) error {
			entries, err := ch.ReadDir(folder)
			if err != nil {
				return fmt.Errorf("%w: list %s on %s: %w", ErrList, folder, r.host(), err)
			}

			result = make([]FileInfo, 0, len(entries))
			for _, e := range entries {
				if isPseudoEntry(e.Name()) {
					continue
				}
				result = append(result, FileInfo{
					Path:     e.Name(),
					FileSize: e.Size(),
					IsDir:    e.IsDir(),
				})
			}
			ev.Files = len(result)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
