package artifact

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/gluk-w/claworc/artifacts/internal/sshkeys"
	"github.com/gluk-w/claworc/artifacts/internal/sshtest"
)

const (
	testUser     = "testuser"
	testPassword = "password"
)

// newServerRepository starts an SFTP server and returns a repository rooted
// at a fresh directory on it.
func newServerRepository(t *testing.T, opts Options) (*Repository, *sshtest.Server, string) {
	t.Helper()
	srv := sshtest.NewServer(t, sshtest.Options{Username: testUser, Password: testPassword})
	root := t.TempDir()

	repo, err := New(srv.URI(filepath.ToSlash(root)), opts)
	require.NoError(t, err)
	return repo, srv, root
}

func waitForDisconnect(t *testing.T, srv *sshtest.Server) {
	t.Helper()
	assert.Eventually(t, func() bool { return srv.ActiveConnections() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestSFTP_LogAndDownloadAtRoot(t *testing.T) {
	repo, srv, root := newServerRepository(t, Options{RunID: "run-id"})
	ctx := context.Background()
	local := writeLocalFile(t, t.TempDir(), "logArtifact", "logArtifact content")

	require.NoError(t, repo.LogArtifact(ctx, local, ""))

	onServer, err := os.ReadFile(filepath.Join(root, "logArtifact"))
	require.NoError(t, err)
	assert.Equal(t, "logArtifact content", string(onServer))

	downloaded, err := repo.DownloadArtifacts(ctx, "logArtifact")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(downloaded) })

	data, err := os.ReadFile(downloaded)
	require.NoError(t, err)
	assert.Equal(t, "logArtifact content", string(data))

	waitForDisconnect(t, srv)
	assert.Equal(t, 2, srv.TotalConnections())
}

func TestSFTP_LogAndDownloadNested(t *testing.T) {
	repo, srv, root := newServerRepository(t, Options{})
	ctx := context.Background()
	local := writeLocalFile(t, t.TempDir(), "logArtifact", "nested content")

	require.NoError(t, repo.LogArtifact(ctx, local, "somewhere"))

	fi, err := os.Stat(filepath.Join(root, "somewhere"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	downloaded, err := repo.DownloadArtifacts(ctx, "somewhere/logArtifact")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(downloaded) })

	data, err := os.ReadFile(downloaded)
	require.NoError(t, err)
	assert.Equal(t, "nested content", string(data))

	waitForDisconnect(t, srv)
}

func TestSFTP_UploadIsIdempotent(t *testing.T) {
	repo, _, root := newServerRepository(t, Options{})
	ctx := context.Background()
	dir := t.TempDir()

	local := writeLocalFile(t, dir, "model.bin", "first version, longer than the second")
	require.NoError(t, repo.LogArtifact(ctx, local, ""))

	writeLocalFile(t, dir, "model.bin", "second")
	require.NoError(t, repo.LogArtifact(ctx, local, ""))
	require.NoError(t, repo.LogArtifact(ctx, local, ""))

	data, err := os.ReadFile(filepath.Join(root, "model.bin"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	got, err := repo.ListArtifacts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{{Path: "model.bin", FileSize: 6}}, got)
}

func TestSFTP_ListSingleFile(t *testing.T) {
	repo, _, root := newServerRepository(t, Options{})
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))

	got, err := repo.ListArtifacts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{{Path: "a.txt", FileSize: 5, IsDir: false}}, got)
}

func TestSFTP_ListSubfolder(t *testing.T) {
	repo, _, _ := newServerRepository(t, Options{})
	ctx := context.Background()
	dir := t.TempDir()
	writeLocalFile(t, dir, "one.txt", "1")
	writeLocalFile(t, dir, "two.txt", "22")

	require.NoError(t, repo.LogArtifacts(ctx, dir, "sub"))

	sub, err := repo.ListArtifacts(ctx, "sub")
	require.NoError(t, err)
	assert.ElementsMatch(t, []FileInfo{
		{Path: "one.txt", FileSize: 1},
		{Path: "two.txt", FileSize: 2},
	}, sub)

	root, err := repo.ListArtifacts(ctx, "")
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, "sub", root[0].Path)
	assert.True(t, root[0].IsDir)
}

func TestSFTP_ListEmptyAndMissing(t *testing.T) {
	repo, _, root := newServerRepository(t, Options{})
	ctx := context.Background()
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	got, err := repo.ListArtifacts(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = repo.ListArtifacts(ctx, "missing")
	assert.ErrorIs(t, err, ErrList)
}

func TestSFTP_DownloadRootDirectory(t *testing.T) {
	repo, _, root := newServerRepository(t, Options{})
	require.NoError(t, os.WriteFile(filepath.Join(root, "x.txt"), []byte("abc"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "y.txt"), []byte("nested"), 0o644))

	local, err := repo.DownloadArtifacts(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(local) })

	assert.Equal(t, []string{"x.txt"}, readDirNames(t, local))
	data, err := os.ReadFile(filepath.Join(local, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestSFTP_DownloadMissing(t *testing.T) {
	repo, srv, _ := newServerRepository(t, Options{})

	_, err := repo.DownloadArtifacts(context.Background(), "does/not/exist")
	require.ErrorIs(t, err, ErrDownload)
	waitForDisconnect(t, srv)
}

func TestSFTP_LogArtifactsParallel(t *testing.T) {
	repo, srv, root := newServerRepository(t, Options{UploadConcurrency: 4})
	ctx := context.Background()
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		writeLocalFile(t, dir, name+".txt", name)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	require.NoError(t, repo.LogArtifacts(ctx, dir, "batch"))

	assert.ElementsMatch(t, []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"}, readDirNames(t, filepath.Join(root, "batch")))
	waitForDisconnect(t, srv)
	assert.Equal(t, 1, srv.TotalConnections())
}

func TestSFTP_RemoteDirectoryMissing(t *testing.T) {
	repo, _, root := newServerRepository(t, Options{})
	local := writeLocalFile(t, t.TempDir(), "f.txt", "x")

	err := repo.LogArtifact(context.Background(), local, "a/b/c")
	require.ErrorIs(t, err, ErrRemoteDirectoryMissing)

	_, statErr := os.Stat(filepath.Join(root, "a"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSFTP_WrongPassword(t *testing.T) {
	srv := sshtest.NewServer(t, sshtest.Options{Username: testUser, Password: testPassword})
	repo, err := New(srv.URIWithUser(url.UserPassword(testUser, "not-the-password"), filepath.ToSlash(t.TempDir())), Options{})
	require.NoError(t, err)

	_, err = repo.ListArtifacts(context.Background(), "")
	require.ErrorIs(t, err, ErrConnection)
	assert.NotContains(t, err.Error(), "not-the-password")

	assert.Eventually(t, func() bool { return srv.AuthFailures() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, srv.TotalConnections())
}

func TestSFTP_PinnedHostKey(t *testing.T) {
	srv := sshtest.NewServer(t, sshtest.Options{Username: testUser, Password: testPassword})
	ctx := context.Background()
	uri := srv.URI(filepath.ToSlash(t.TempDir()))

	pinned, err := New(uri, Options{HostKey: sshkeys.HostKeyOptions{
		Verify:      true,
		Fingerprint: ssh.FingerprintSHA256(srv.HostKey),
	}})
	require.NoError(t, err)
	_, err = pinned.ListArtifacts(ctx, "")
	require.NoError(t, err)

	wrong, err := New(uri, Options{HostKey: sshkeys.HostKeyOptions{
		Verify:      true,
		Fingerprint: "SHA256:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	}})
	require.NoError(t, err)
	_, err = wrong.ListArtifacts(ctx, "")
	require.ErrorIs(t, err, ErrConnection)
}
