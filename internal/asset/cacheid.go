package asset

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// cacheSuffix keeps a cache entry from ever sharing a name with a file.
const cacheSuffix = "_cache"

var compoundExts = []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tar.zst"}

// cacheIDFromURL derives host/dir/<leaf>_cache from a URL. It returns ""
// when the URL cannot be parsed or has no host.
func cacheIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}

	parts := []string{sanitize(u.Host)}
	dir, file := path.Split(strings.TrimSuffix(u.Path, "/"))
	for _, seg := range strings.Split(dir, "/") {
		if seg != "" {
			parts = append(parts, sanitize(seg))
		}
	}
	parts = append(parts, leafName(file))
	return filepath.Join(parts...)
}

// leafName turns a file name into a cache directory name.
func leafName(file string) string {
	name := trimArchiveExt(file)
	if name == "" {
		name = "index"
	}
	return sanitize(name) + cacheSuffix
}

func trimArchiveExt(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range compoundExts {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// sanitize maps a path segment onto [A-Za-z0-9._-].
func sanitize(seg string) string {
	if seg == "." || seg == ".." {
		return "_"
	}
	var b strings.Builder
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
