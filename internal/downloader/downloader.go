package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/soumeh01/vsce-helper/internal/config"
	"github.com/soumeh01/vsce-helper/internal/domain"
	"github.com/soumeh01/vsce-helper/internal/state"
	"github.com/soumeh01/vsce-helper/internal/target"
)

type Options struct {
	// MaxParallel bounds concurrent downloads in Run; zero means unbounded.
	MaxParallel int
}

// Downloader installs registry entries under a root directory and keeps
// their markers up to date.
type Downloader struct {
	root     string
	cacheDir string
	items    map[string]domain.Downloadable
	order    []string
	logger   *log.Logger
	opts     Options
}

func New(root, cacheDir string, items []domain.Downloadable, logger *log.Logger, opts Options) *Downloader {
	d := &Downloader{
		root:     root,
		cacheDir: cacheDir,
		items:    make(map[string]domain.Downloadable, len(items)),
		logger:   logger,
		opts:     opts,
	}
	for _, item := range items {
		if _, dup := d.items[item.Name]; !dup {
			d.order = append(d.order, item.Name)
		}
		d.items[item.Name] = item
	}
	return d
}

// Dest is the directory the named tool is installed into.
func (d *Downloader) Dest(name string) (string, error) {
	item, ok := d.items[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}
	rel, err := config.LocalDestination(item.Destination)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return filepath.Join(d.root, rel), nil
}

// Download installs one tool for tgt. A tool without an asset for tgt is
// skipped, as is one whose markers already match, unless force is set.
func (d *Downloader) Download(ctx context.Context, name string, tgt target.Target, force bool) (err error) {
	item, ok := d.items[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
	}
	logger := d.logger.With("tool", name)

	rel, err := config.LocalDestination(item.Destination)
	if err != nil {
		logger.Error("invalid destination", "err", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	dest := filepath.Join(d.root, rel)
	markers := state.New(dest)
	installed, err := markers.Read()
	if err != nil {
		logger.Error("reading markers failed", "err", err)
		return fmt.Errorf("%s: %w", name, err)
	}

	asset, err := item.Asset(tgt)
	if err != nil {
		logger.Error("creating asset failed", "err", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	if asset == nil {
		logger.Info("not available for target", "target", tgt)
		return nil
	}

	defer func() {
		if derr := asset.Dispose(); derr != nil {
			logger.Warn("cleanup failed", "err", derr)
		}
	}()

	version, err := asset.Version(ctx)
	if err != nil {
		logger.Error("resolving version failed", "err", err)
		return fmt.Errorf("%s: %w", name, err)
	}

	if !force && version != "" && installed != nil &&
		installed.Version == version && installed.Target == tgt.String() {
		logger.Info("up to date", "version", version, "target", tgt)
		return nil
	}

	logger.Info("downloading", "version", version, "target", tgt, "dest", dest)
	if err := d.install(ctx, asset, dest, markers, version, tgt); err != nil {
		logger.Error("download failed", "err", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug("installed", "dest", dest)
	return nil
}

func (d *Downloader) install(ctx context.Context, asset domain.Asset, dest string, markers *state.Markers, version string, tgt target.Target) error {
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clearing %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	asset.WithCacheDir(d.cacheDir)
	if _, err := asset.CopyTo(ctx, dest); err != nil {
		return err
	}
	return markers.Write(version, tgt.String())
}

// Run downloads names, or every registered tool when names is empty, in
// parallel. A failing tool does not stop the others; the first error is
// returned once all have finished.
func (d *Downloader) Run(ctx context.Context, names []string, tgt target.Target, force bool) error {
	if len(names) == 0 {
		names = d.order
	}
	for _, name := range names {
		if _, ok := d.items[name]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownTool, name)
		}
	}

	var g errgroup.Group
	if d.opts.MaxParallel > 0 {
		g.SetLimit(d.opts.MaxParallel)
	}
	for _, name := range names {
		name := name
		g.Go(func() error {
			return d.Download(ctx, name, tgt, force)
		})
	}
	return g.Wait()
}

// Names lists the registered tools in registration order.
func (d *Downloader) Names() []string {
	return append([]string(nil), d.order...)
}
