package asset

import (
	"github.com/soumeh01/vsce-helper/internal/domain"
	"github.com/soumeh01/vsce-helper/internal/extractor"
)

// Deps bundles the collaborators assets delegate to.
type Deps struct {
	Transport domain.Transport
	Tar       domain.Extractor
	Zip       domain.Extractor
	// TempDir is where ephemeral directories are created; empty means os.TempDir.
	TempDir string
}

func NewDeps(transport domain.Transport) *Deps {
	return &Deps{
		Transport: transport,
		Tar:       extractor.NewTAR(),
		Zip:       extractor.NewZIP(),
	}
}
