package registry

import (
	"fmt"
	"strings"

	"github.com/soumeh01/vsce-helper/internal/asset"
	"github.com/soumeh01/vsce-helper/internal/config"
	"github.com/soumeh01/vsce-helper/internal/domain"
	"github.com/soumeh01/vsce-helper/internal/github"
	"github.com/soumeh01/vsce-helper/internal/target"
)

const (
	KindFile     = "file"
	KindWeb      = "web"
	KindRelease  = "github-release"
	KindRepo     = "github-repo"
	KindWorkflow = "github-workflow"
)

// required lists the fields each source kind cannot do without.
var required = map[string][]string{
	KindFile:     {"path"},
	KindWeb:      {"url"},
	KindRelease:  {"repo", "tag", "asset"},
	KindRepo:     {"repo"},
	KindWorkflow: {"repo", "workflow", "artifact"},
}

// Registry turns the configured tools into downloadables.
type Registry struct {
	cfg    *config.Config
	deps   *asset.Deps
	client *github.Client
	items  []domain.Downloadable
	index  map[string]int
}

func New(cfg *config.Config, deps *asset.Deps, client *github.Client) (*Registry, error) {
	r := &Registry{
		cfg:    cfg,
		deps:   deps,
		client: client,
		index:  make(map[string]int, len(cfg.Order)),
	}

	for _, name := range cfg.Order {
		tool, ok := cfg.Tools[name]
		if !ok {
			continue
		}
		for key, src := range tool.Targets {
			if err := check(src); err != nil {
				return nil, fmt.Errorf("tool %s, target %s: %w", name, key, err)
			}
		}

		r.index[name] = len(r.items)
		r.items = append(r.items, domain.Downloadable{
			Name:        name,
			Destination: tool.DestinationOr(name),
			Asset:       r.factory(tool),
		})
	}
	return r, nil
}

func (r *Registry) Items() []domain.Downloadable {
	return r.items
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.items))
	for i, item := range r.items {
		names[i] = item.Name
	}
	return names
}

func (r *Registry) Tool(name string) (domain.Downloadable, bool) {
	i, ok := r.index[name]
	if !ok {
		return domain.Downloadable{}, false
	}
	return r.items[i], true
}

// Supports reports whether name has a source for t.
func (r *Registry) Supports(name string, t target.Target) bool {
	tool, ok := r.cfg.Tools[name]
	if !ok {
		return false
	}
	_, ok = lookup(tool, t)
	return ok
}

func (r *Registry) factory(tool config.Tool) domain.AssetFactory {
	return func(t target.Target) (domain.Asset, error) {
		src, ok := lookup(tool, t)
		if !ok {
			return nil, nil
		}
		return r.build(src, tool.Version, t)
	}
}

func lookup(tool config.Tool, t target.Target) (config.Source, bool) {
	for _, key := range t.Candidates() {
		if src, ok := tool.Targets[key]; ok {
			return src, true
		}
	}
	return config.Source{}, false
}

func (r *Registry) build(src config.Source, version string, t target.Target) (domain.Asset, error) {
	x := strings.NewReplacer(
		"{version}", version,
		"{target}", t.String(),
		"{os}", t.OS,
		"{arch}", t.Arch,
	).Replace

	var (
		a   domain.Asset
		err error
	)
	switch src.Kind {
	case KindFile:
		a = asset.NewLocalFile(r.deps, r.cfg.Resolve(x(src.Path)), x(src.FileName))
	case KindWeb:
		var opts []asset.WebOption
		if src.FileName != "" {
			opts = append(opts, asset.WithFileName(x(src.FileName)))
		}
		if src.SHA256 != "" {
			opts = append(opts, asset.WithSHA256(src.SHA256))
		}
		a = asset.NewWebFile(r.deps, x(src.URL), version, opts...)
	case KindRelease:
		a, err = asset.NewGitHubRelease(r.deps, r.client, x(src.Repo), x(src.Tag), x(src.Asset))
	case KindRepo:
		ref := x(src.Ref)
		if ref == "" {
			ref = "HEAD"
		}
		a, err = asset.NewGitHubRepo(r.deps, r.client, x(src.Repo), ref, x(src.Path))
	case KindWorkflow:
		a, err = asset.NewGitHubWorkflow(r.deps, r.client, x(src.Repo), x(src.Workflow), x(src.Artifact), github.RunFilter{
			Branch: x(src.Branch),
			Status: src.Status,
			Event:  src.Event,
		})
	default:
		err = fmt.Errorf("unknown source %q", src.Kind)
	}
	if err != nil {
		return nil, err
	}

	if src.Extract {
		return asset.NewArchiveFile(r.deps, a, src.Strip)
	}
	return a, nil
}

func check(src config.Source) error {
	fields, ok := required[src.Kind]
	if !ok {
		return fmt.Errorf("unknown source %q", src.Kind)
	}
	values := map[string]string{
		"path":     src.Path,
		"url":      src.URL,
		"repo":     src.Repo,
		"tag":      src.Tag,
		"asset":    src.Asset,
		"workflow": src.Workflow,
		"artifact": src.Artifact,
	}
	for _, f := range fields {
		if values[f] == "" {
			return fmt.Errorf("%s source needs %s", src.Kind, f)
		}
	}
	if src.Kind != KindWeb && src.SHA256 != "" {
		return fmt.Errorf("sha256 is only supported for web sources")
	}
	return nil
}
