package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/gluk-w/claworc/artifacts/internal/artifact"
	"github.com/gluk-w/claworc/artifacts/internal/logutil"
)

// ArtifactStore is the read side of an artifact repository.
type ArtifactStore interface {
	ListArtifacts(ctx context.Context, artifactPath string) ([]artifact.FileInfo, error)
	DownloadArtifacts(ctx context.Context, artifactPath string) (string, error)
	String() string
}

// Repo is the repository served by the API. Nil until serve configures it.
var Repo ArtifactStore

var log = logger.WithField("component", "http")

// statusFor maps repository errors to HTTP statuses. Only a missing remote
// path is a 404; other list or download failures come from the SFTP server.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, artifact.ErrConnection),
		errors.Is(err, artifact.ErrList),
		errors.Is(err, artifact.ErrDownload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validArtifactPath rejects absolute paths and any ".." segment so a request
// cannot leave the repository root.
func validArtifactPath(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return false
	}
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return false
		}
	}
	return true
}

// ListArtifacts lists one folder of the repository.
//
// Query parameters:
//
//	path - artifact path relative to the repository root (default: root)
func ListArtifacts(w http.ResponseWriter, r *http.Request) {
	if Repo == nil {
		writeError(w, http.StatusServiceUnavailable, "Repository not configured")
		return
	}

	artifactPath := r.URL.Query().Get("path")
	if !validArtifactPath(artifactPath) {
		writeError(w, http.StatusBadRequest, "Invalid artifact path")
		return
	}
	entries, err := Repo.ListArtifacts(r.Context(), artifactPath)
	if err != nil {
		log.WithError(err).Warnf("list %s failed", logutil.SanitizeForLog(artifactPath))
		writeError(w, statusFor(err), fmt.Sprintf("Failed to list artifacts: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"path":    artifactPath,
		"entries": entries,
	})
}

// DownloadArtifacts streams a remote file, or a remote folder's files as a
// tar.gz archive. The local copy is removed once the response is written.
//
// Query parameters:
//
//	path - artifact path relative to the repository root (default: root)
func DownloadArtifacts(w http.ResponseWriter, r *http.Request) {
	if Repo == nil {
		writeError(w, http.StatusServiceUnavailable, "Repository not configured")
		return
	}

	artifactPath := r.URL.Query().Get("path")
	if !validArtifactPath(artifactPath) {
		writeError(w, http.StatusBadRequest, "Invalid artifact path")
		return
	}
	local, err := Repo.DownloadArtifacts(r.Context(), artifactPath)
	if err != nil {
		log.WithError(err).Warnf("download %s failed", logutil.SanitizeForLog(artifactPath))
		writeError(w, statusFor(err), fmt.Sprintf("Failed to download artifacts: %v", err))
		return
	}
	defer os.RemoveAll(local)

	fi, err := os.Stat(local)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Downloaded artifacts disappeared")
		return
	}

	name := downloadName(artifactPath)
	if fi.IsDir() {
		w.Header().Set("Content-Type", "application/gzip")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.tar.gz"`, name))
		if err := writeTarGz(w, local); err != nil {
			// Headers are gone; all we can do is log and cut the stream.
			log.WithError(err).Errorf("archive %s failed", logutil.SanitizeForLog(artifactPath))
		}
		return
	}

	f, err := os.Open(local)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open downloaded artifact")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	if _, err := io.Copy(w, f); err != nil {
		log.WithError(err).Warnf("stream %s failed", logutil.SanitizeForLog(artifactPath))
	}
}

// downloadName is the last element of artifactPath, or "artifacts" for the
// root. Quotes are dropped so the name fits a Content-Disposition header.
func downloadName(artifactPath string) string {
	name := path.Base(strings.Trim(artifactPath, "/"))
	if name == "." || name == "/" || name == "" {
		name = "artifacts"
	}
	return strings.NewReplacer(`"`, "", `\`, "", "\r", "", "\n", "").Replace(name)
}
