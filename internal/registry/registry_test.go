package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soumeh01/vsce-helper/internal/asset"
	"github.com/soumeh01/vsce-helper/internal/config"
	"github.com/soumeh01/vsce-helper/internal/github"
	"github.com/soumeh01/vsce-helper/internal/target"
)

var (
	linux = target.Target{OS: "linux", Arch: "x64"}
	mac   = target.Target{OS: "darwin", Arch: "arm64"}
	win   = target.Target{OS: "win32", Arch: "x64"}
)

func newRegistry(t *testing.T, tools map[string]config.Tool, order ...string) (*Registry, error) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Tools = tools
	cfg.Order = order
	return New(cfg, asset.NewDeps(nil), github.NewClient())
}

func TestTargetLookupOrder(t *testing.T) {
	t.Parallel()
	r, err := newRegistry(t, map[string]config.Tool{
		"tool": {
			Version: "2.0",
			Targets: map[string]config.Source{
				"linux-x64": {Kind: KindWeb, URL: "https://example.com/exact/tool-{version}-{target}.tgz"},
				"darwin":    {Kind: KindWeb, URL: "https://example.com/os/tool-{os}-{arch}.tgz"},
			},
		},
	}, "tool")
	require.NoError(t, err)

	item, ok := r.Tool("tool")
	require.True(t, ok)
	assert.Equal(t, "tool", item.Destination)

	a, err := item.Asset(linux)
	require.NoError(t, err)
	require.IsType(t, &asset.WebFile{}, a)
	assert.Equal(t, filepath.Join("example.com", "exact", "tool-2.0-linux-x64_cache"), a.CacheID())

	a, err = item.Asset(mac)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("example.com", "os", "tool-darwin-arm64_cache"), a.CacheID())

	a, err = item.Asset(win)
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.True(t, r.Supports("tool", linux))
	assert.False(t, r.Supports("tool", win))
	assert.False(t, r.Supports("other", linux))
}

func TestWildcardAndKinds(t *testing.T) {
	t.Parallel()
	r, err := newRegistry(t, map[string]config.Tool{
		"rel": {Version: "1.4", Destination: "bin/rel", Targets: map[string]config.Source{
			"*": {Kind: KindRelease, Repo: "acme/rel", Tag: "v{version}", Asset: "rel-{target}.zip", Extract: true, Strip: 1},
		}},
		"snap": {Targets: map[string]config.Source{
			"*": {Kind: KindRepo, Repo: "acme/snap", Path: "schemas"},
		}},
		"ci": {Targets: map[string]config.Source{
			"*": {Kind: KindWorkflow, Repo: "acme/ci", Workflow: "build.yml", Artifact: "dist-{os}", Branch: "main"},
		}},
		"local": {Targets: map[string]config.Source{
			"*": {Kind: KindFile, Path: "vendor/{target}.bin"},
		}},
	}, "rel", "snap", "ci", "local")
	require.NoError(t, err)
	assert.Equal(t, []string{"rel", "snap", "ci", "local"}, r.Names())
	require.Len(t, r.Items(), 4)

	rel, _ := r.Tool("rel")
	assert.Equal(t, "bin/rel", rel.Destination)
	a, err := rel.Asset(win)
	require.NoError(t, err)
	require.IsType(t, &asset.ArchiveFile{}, a)
	v, err := a.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.4", v)
	assert.Equal(t, filepath.Join("github.com", "acme", "rel", "releases", "v1.4", "rel-win32-x64_cache_unpacked"), a.CacheID())

	snap, _ := r.Tool("snap")
	a, err = snap.Asset(linux)
	require.NoError(t, err)
	assert.IsType(t, &asset.GitHubRepo{}, a)

	ci, _ := r.Tool("ci")
	a, err = ci.Asset(mac)
	require.NoError(t, err)
	require.IsType(t, &asset.GitHubWorkflow{}, a)
	assert.Equal(t, filepath.Join("github.com", "acme", "ci", "actions", "build.yml", "dist-darwin_cache"), a.CacheID())

	local, _ := r.Tool("local")
	a, err = local.Asset(linux)
	require.NoError(t, err)
	assert.IsType(t, &asset.LocalFile{}, a)
}

func TestInvalidSources(t *testing.T) {
	t.Parallel()

	tests := map[string]config.Source{
		"unknown kind":      {Kind: "ftp", URL: "ftp://x"},
		"web without url":   {Kind: KindWeb},
		"release no asset":  {Kind: KindRelease, Repo: "a/b", Tag: "v1"},
		"workflow no name":  {Kind: KindWorkflow, Repo: "a/b", Artifact: "x"},
		"sha256 on release": {Kind: KindRelease, Repo: "a/b", Tag: "v1", Asset: "x", SHA256: "00"},
	}
	for name, src := range tests {
		name, src := name, src
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := newRegistry(t, map[string]config.Tool{
				"tool": {Targets: map[string]config.Source{"*": src}},
			}, "tool")
			assert.Error(t, err)
		})
	}
}

func TestBadRepoSurfacesFromFactory(t *testing.T) {
	t.Parallel()
	r, err := newRegistry(t, map[string]config.Tool{
		"tool": {Targets: map[string]config.Source{"*": {Kind: KindRepo, Repo: "not-a-repo"}}},
	}, "tool")
	require.NoError(t, err)

	item, _ := r.Tool("tool")
	_, err = item.Asset(linux)
	assert.Error(t, err)
}

func TestPlaceholdersInRepoAndWorkflow(t *testing.T) {
	t.Parallel()
	r, err := newRegistry(t, map[string]config.Tool{
		"rel": {Version: "3", Targets: map[string]config.Source{
			"*": {Kind: KindRelease, Repo: "acme/tool-{os}", Tag: "v{version}", Asset: "t.zip"},
		}},
		"ci": {Version: "3", Targets: map[string]config.Source{
			"*": {Kind: KindWorkflow, Repo: "acme/tool-v{version}", Workflow: "build-{arch}.yml", Artifact: "dist"},
		}},
	}, "rel", "ci")
	require.NoError(t, err)

	rel, _ := r.Tool("rel")
	a, err := rel.Asset(mac)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("github.com", "acme", "tool-darwin", "releases", "v3", "t_cache"), a.CacheID())

	ci, _ := r.Tool("ci")
	a, err = ci.Asset(linux)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("github.com", "acme", "tool-v3", "actions", "build-x64.yml", "dist_cache"), a.CacheID())
}
