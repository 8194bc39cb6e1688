package asset

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soumeh01/vsce-helper/internal/domain"
	"github.com/soumeh01/vsce-helper/internal/fetcher"
	"github.com/soumeh01/vsce-helper/internal/github"
)

type fakeGitHub struct {
	*httptest.Server
	mux      *http.ServeMux
	requests atomic.Int32
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{mux: http.NewServeMux()}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGitHub) json(pattern string, v any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	})
}

func (f *fakeGitHub) bytes(pattern string, body []byte) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})
}

func (f *fakeGitHub) deps(t *testing.T) (*Deps, *github.Client) {
	t.Helper()
	deps := NewDeps(fetcher.New(10 * time.Second))
	deps.TempDir = t.TempDir()
	return deps, github.NewClient(github.WithBaseURL(f.URL), github.WithToken("tok"))
}

func TestGitHubReleaseByTag(t *testing.T) {
	t.Parallel()
	gh := newFakeGitHub(t)
	gh.json("/repos/acme/tool/releases/tags/v1.0.0", github.Release{ID: 3, TagName: "v1.0.0"})
	gh.json("/repos/acme/tool/releases/3/assets", []github.ReleaseAsset{
		{Name: "other.zip", BrowserDownloadURL: gh.URL + "/dl/other.zip"},
		{Name: "tool-linux.tar.gz", BrowserDownloadURL: gh.URL + "/dl/tool-linux.tar.gz"},
	})
	gh.bytes("/dl/tool-linux.tar.gz", []byte("archive"))
	deps, client := gh.deps(t)
	cache := t.TempDir()

	a, err := NewGitHubRelease(deps, client, "acme/tool", "v1.0.0", "tool-linux.tar.gz")
	require.NoError(t, err)
	a.WithCacheDir(cache)
	defer a.Dispose()

	v, err := a.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", v)
	assert.Equal(t, filepath.Join("github.com", "acme", "tool", "releases", "v1.0.0", "tool-linux_cache"), a.CacheID())

	got, err := a.CopyTo(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, a.CacheID(), "tool-linux.tar.gz"), got)
	assert.Equal(t, "archive", readFile(t, got))

	before := gh.requests.Load()
	again, err := NewGitHubRelease(deps, client, "acme/tool", "v1.0.0", "tool-linux.tar.gz")
	require.NoError(t, err)
	again.WithCacheDir(cache)
	_, err = again.CopyTo(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, before, gh.requests.Load())
}

func TestGitHubReleaseKeepsTokenOnGitHub(t *testing.T) {
	t.Parallel()
	auth := make(chan string, 2)
	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- "mirror:" + r.Header.Get("Authorization")
		_, _ = w.Write([]byte("mirrored"))
	}))
	t.Cleanup(mirror.Close)

	gh := newFakeGitHub(t)
	gh.json("/repos/acme/tool/releases/tags/v1", github.Release{ID: 4, TagName: "v1"})
	gh.json("/repos/acme/tool/releases/4/assets", []github.ReleaseAsset{
		{Name: "tool.zip", BrowserDownloadURL: mirror.URL + "/tool.zip"},
		{Name: "tool.tgz", BrowserDownloadURL: gh.URL + "/dl/tool.tgz"},
	})
	gh.mux.HandleFunc("/dl/tool.tgz", func(w http.ResponseWriter, r *http.Request) {
		auth <- "github:" + r.Header.Get("Authorization")
		_, _ = w.Write([]byte("direct"))
	})
	deps, client := gh.deps(t)

	external, err := NewGitHubRelease(deps, client, "acme/tool", "v1", "tool.zip")
	require.NoError(t, err)
	defer external.Dispose()
	_, err = external.CopyTo(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "mirror:", <-auth)

	direct, err := NewGitHubRelease(deps, client, "acme/tool", "v1", "tool.tgz")
	require.NoError(t, err)
	defer direct.Dispose()
	_, err = direct.CopyTo(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "github:Bearer tok", <-auth)
}

func TestGitHubReleaseFallsBackToListing(t *testing.T) {
	t.Parallel()
	gh := newFakeGitHub(t)
	gh.json("/repos/acme/tool/releases", []github.Release{{ID: 1, TagName: "v2"}, {ID: 5, TagName: "nightly", Draft: true}})
	gh.json("/repos/acme/tool/releases/5/assets", []github.ReleaseAsset{
		{Name: "tool.zip", BrowserDownloadURL: gh.URL + "/dl/tool.zip"},
	})
	gh.bytes("/dl/tool.zip", []byte("zip"))
	deps, client := gh.deps(t)

	a, err := NewGitHubRelease(deps, client, "acme/tool", "nightly", "tool.zip")
	require.NoError(t, err)
	defer a.Dispose()

	got, err := a.CopyTo(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "zip", readFile(t, got))
}

func TestGitHubReleaseNotFound(t *testing.T) {
	t.Parallel()
	gh := newFakeGitHub(t)
	gh.json("/repos/acme/tool/releases", []github.Release{{ID: 1, TagName: "v2"}})
	gh.json("/repos/acme/tool/releases/tags/v2", github.Release{ID: 1, TagName: "v2"})
	gh.json("/repos/acme/tool/releases/1/assets", []github.ReleaseAsset{})
	deps, client := gh.deps(t)

	missingRelease, err := NewGitHubRelease(deps, client, "acme/tool", "v9", "tool.zip")
	require.NoError(t, err)
	_, err = missingRelease.CopyTo(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrReleaseNotFound)

	missingAsset, err := NewGitHubRelease(deps, client, "acme/tool", "v2", "tool.zip")
	require.NoError(t, err)
	_, err = missingAsset.CopyTo(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)

	_, err = NewGitHubRelease(deps, client, "acme", "v2", "tool.zip")
	assert.Error(t, err)
}

func TestGitHubRepoSnapshot(t *testing.T) {
	t.Parallel()
	gh := newFakeGitHub(t)
	var (
		resolves atomic.Int32
		head     atomic.Value
	)
	head.Store("abc123")
	gh.mux.HandleFunc("/repos/acme/tool/commits/main", func(w http.ResponseWriter, r *http.Request) {
		resolves.Add(1)
		_, _ = w.Write([]byte(head.Load().(string)))
	})
	gh.bytes("/repos/acme/tool/tarball/abc123", tarGz(t,
		entry{name: "acme-tool-abc123/", dir: true},
		entry{name: "acme-tool-abc123/README.md", body: "readme"},
		entry{name: "acme-tool-abc123/schemas/a.json", body: "{}"},
		entry{name: "acme-tool-abc123/schemas/sub/b.json", body: "[]"},
	))
	deps, client := gh.deps(t)

	a, err := NewGitHubRepo(deps, client, "acme/tool", "main", "schemas")
	require.NoError(t, err)
	assert.Empty(t, a.CacheID())

	for i := 0; i < 2; i++ {
		v, err := a.Version(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc123", v)
	}
	assert.Equal(t, int32(1), resolves.Load())

	// main moves on; the snapshot must still match the reported version.
	head.Store("def456")
	dest := t.TempDir()
	got, err := a.CopyTo(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)
	assert.Equal(t, int32(1), resolves.Load())
	assert.Equal(t, "{}", readFile(t, filepath.Join(dest, "a.json")))
	assert.Equal(t, "[]", readFile(t, filepath.Join(dest, "sub", "b.json")))
	assert.NoFileExists(t, filepath.Join(dest, "README.md"))

	require.NoError(t, a.Dispose())
	assert.Empty(t, dirNames(t, deps.TempDir))

	head.Store("abc123")
	file, err := NewGitHubRepo(deps, client, "acme/tool", "main", "README.md")
	require.NoError(t, err)
	defer file.Dispose()
	dest = t.TempDir()
	_, err = file.CopyTo(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, "readme", readFile(t, filepath.Join(dest, "README.md")))
}

func TestGitHubResolveRefMemoizedPerRef(t *testing.T) {
	t.Parallel()
	gh := newFakeGitHub(t)
	var mainCalls, tagCalls atomic.Int32
	gh.mux.HandleFunc("/repos/acme/tool/commits/main", func(w http.ResponseWriter, r *http.Request) {
		mainCalls.Add(1)
		_, _ = w.Write([]byte("aaa111"))
	})
	gh.mux.HandleFunc("/repos/acme/tool/commits/v1", func(w http.ResponseWriter, r *http.Request) {
		tagCalls.Add(1)
		_, _ = w.Write([]byte("bbb222"))
	})
	deps, client := gh.deps(t)

	a, err := NewGitHubRepo(deps, client, "acme/tool", "main", "")
	require.NoError(t, err)
	defer a.Dispose()

	ctx := context.Background()
	mainSHA, err := a.ResolveRef(ctx, "main")
	require.NoError(t, err)
	v1, err := a.ResolveRef(ctx, "v1")
	require.NoError(t, err)
	again, err := a.ResolveRef(ctx, "main")
	require.NoError(t, err)

	assert.Equal(t, "aaa111", mainSHA)
	assert.Equal(t, "bbb222", v1)
	assert.Equal(t, mainSHA, again)
	assert.Equal(t, int32(1), mainCalls.Load())
	assert.Equal(t, int32(1), tagCalls.Load())
}

func TestGitHubWorkflowArtifact(t *testing.T) {
	t.Parallel()
	gh := newFakeGitHub(t)
	gh.mux.HandleFunc("/repos/acme/tool/actions/workflows/build.yml/runs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("branch"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total_count":   1,
			"workflow_runs": []github.WorkflowRun{{ID: 77, HeadSHA: "feed"}},
		})
	})
	gh.json("/repos/acme/tool/actions/runs/77/artifacts", map[string]any{
		"artifacts": []github.Artifact{
			{Name: "dist", Expired: true, ArchiveDownloadURL: gh.URL + "/dl/old.zip"},
			{Name: "dist", ArchiveDownloadURL: gh.URL + "/dl/dist.zip"},
		},
	})
	gh.bytes("/dl/dist.zip", zipBytes(t, entry{name: "bin/tool", body: "exe"}))
	deps, client := gh.deps(t)
	cache := t.TempDir()

	a, err := NewGitHubWorkflow(deps, client, "acme/tool", "build.yml", "dist", github.RunFilter{Branch: "main"})
	require.NoError(t, err)
	a.WithCacheDir(cache)
	defer a.Dispose()

	v, err := a.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feed", v)

	dest := t.TempDir()
	got, err := a.CopyTo(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)
	assert.Equal(t, "exe", readFile(t, filepath.Join(dest, "bin", "tool")))
	assert.FileExists(t, filepath.Join(cache, a.CacheID(), "dist-77.zip"))

	missing, err := NewGitHubWorkflow(deps, client, "acme/tool", "build.yml", "docs", github.RunFilter{Branch: "main"})
	require.NoError(t, err)
	_, err = missing.CopyTo(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func TestGitHubWorkflowWithoutRuns(t *testing.T) {
	t.Parallel()
	gh := newFakeGitHub(t)
	gh.json("/repos/acme/tool/actions/workflows/build.yml/runs", map[string]any{"total_count": 0, "workflow_runs": []any{}})
	deps, client := gh.deps(t)

	a, err := NewGitHubWorkflow(deps, client, "acme/tool", "build.yml", "dist", github.RunFilter{})
	require.NoError(t, err)
	_, err = a.Version(context.Background())
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
