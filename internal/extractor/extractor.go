package extractor

import (
	"path"
	"strings"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatZIP
	FormatTAR
)

func (f Format) String() string {
	switch f {
	case FormatZIP:
		return "zip"
	case FormatTAR:
		return "tar"
	default:
		return "unknown"
	}
}

var tarExts = []string{".tar", ".tgz", ".gz", ".bz2", ".xz", ".zst", ".txz", ".tzst", ".tbz2"}

// Detect classifies an archive by its file name.
func Detect(name string) Format {
	lower := strings.ToLower(name)

	if strings.HasSuffix(lower, ".zip") {
		return FormatZIP
	}
	for _, ext := range tarExts {
		if strings.HasSuffix(lower, ext) {
			return FormatTAR
		}
	}
	return FormatUnknown
}

// stripComponents drops the first n components of an archive entry name.
// ok is false when nothing is left.
func stripComponents(name string, n int) (string, bool) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "." || clean == "" {
		return "", false
	}

	parts := strings.Split(clean, "/")
	if n >= len(parts) {
		return "", false
	}
	return strings.Join(parts[n:], "/"), true
}
