package domain

// Downloadable is a named registry entry.
type Downloadable struct {
	Name string
	// Destination is relative to the tools root.
	Destination string
	Asset       AssetFactory
}

// Installed is the marker state of a destination directory.
type Installed struct {
	Version string
	Target  string
}
