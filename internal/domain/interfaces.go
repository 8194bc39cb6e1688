package domain

import (
	"context"

	"github.com/soumeh01/vsce-helper/internal/target"
)

// Disposer releases resources held by a value.
type Disposer interface {
	Dispose() error
}

// Asset produces bytes on disk from some source.
//
// The owner calls WithCacheDir before CopyTo and must call Dispose exactly
// once, whatever CopyTo returned.
type Asset interface {
	Disposer

	// Version identifies the upstream content. An empty string means the
	// version is unknown and the asset is always fetched.
	Version(ctx context.Context) (string, error)

	// CacheID is a filesystem-safe relative path naming the cache entry for
	// this source. An empty string means the asset does not support caching.
	CacheID() string

	WithCacheDir(dir string)

	// CopyTo materializes the asset into dest and returns the resulting path.
	// With an empty dest the asset chooses: its cache entry or a temporary
	// directory owned by the asset.
	CopyTo(ctx context.Context, dest string) (string, error)
}

// Transport downloads a URL to a file.
type Transport interface {
	Download(ctx context.Context, url, dest string, headers map[string]string) (string, error)
}

// Extractor unpacks an archive into dst, dropping the first strip path
// components of every entry.
type Extractor interface {
	Extract(src, dst string, strip int) error
}

// AssetFactory returns the asset for a target, or nil when the tool is not
// available on that target.
type AssetFactory func(t target.Target) (Asset, error)
