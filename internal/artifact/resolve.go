package artifact

import (
	"path/filepath"
	"strings"
)

// resolveFolder maps an artifact path to a remote folder. The artifact path
// is appended literally; "." and ".." segments are left to the server.
func (r *Repository) resolveFolder(artifactPath string) string {
	if artifactPath == "" {
		return r.basePath
	}
	return joinRemote(r.basePath, strings.TrimLeft(artifactPath, "/"))
}

// resolveFile maps a local file to its remote location. Only the base name
// of localName is used.
func (r *Repository) resolveFile(localName, artifactPath string) string {
	return joinRemote(r.resolveFolder(artifactPath), filepath.Base(localName))
}

func joinRemote(dir, name string) string {
	switch {
	case name == "":
		return dir
	case dir == "" || dir == ".":
		return name
	default:
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
}

// remoteParent is path.Dir without the cleaning.
func remoteParent(p string) string {
	i := strings.LastIndex(p, "/")
	switch {
	case i < 0:
		return "."
	case i == 0:
		return "/"
	default:
		return p[:i]
	}
}

// basePathOf turns the URI path into the repository root.
func basePathOf(uriPath string) string {
	if uriPath == "" {
		return "."
	}
	if uriPath != "/" {
		uriPath = strings.TrimSuffix(uriPath, "/")
	}
	return uriPath
}
