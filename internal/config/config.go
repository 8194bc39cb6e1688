package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultFile           = "vsce-helper.toml"
	DefaultToolsDir       = "tools"
	DefaultGitHubAPI      = "https://api.github.com"
	DefaultGitHubTokenEnv = "GITHUB_TOKEN"
)

type Config struct {
	ToolsDir       string          `toml:"tools_dir"`
	CacheDir       string          `toml:"cache_dir"`
	MaxParallel    int             `toml:"max_parallel"`
	GitHubAPI      string          `toml:"github_api"`
	GitHubTokenEnv string          `toml:"github_token_env"`
	Tools          map[string]Tool `toml:"tools"`

	// Dir is the directory relative paths are resolved against.
	Dir string `toml:"-"`
	// Order lists tool names as they appear in the file.
	Order []string `toml:"-"`
}

type Tool struct {
	Destination string            `toml:"destination"`
	Version     string            `toml:"version"`
	Targets     map[string]Source `toml:"targets"`
}

// Source describes where a tool comes from on one target.
type Source struct {
	Kind     string `toml:"source"`
	URL      string `toml:"url"`
	Path     string `toml:"path"`
	FileName string `toml:"file_name"`
	SHA256   string `toml:"sha256"`
	Repo     string `toml:"repo"`
	Tag      string `toml:"tag"`
	Asset    string `toml:"asset"`
	Ref      string `toml:"ref"`
	Workflow string `toml:"workflow"`
	Artifact string `toml:"artifact"`
	Branch   string `toml:"branch"`
	Status   string `toml:"status"`
	Event    string `toml:"event"`
	Extract  bool   `toml:"extract"`
	Strip    int    `toml:"strip"`
}

func Default(dir string) *Config {
	return &Config{
		ToolsDir:       DefaultToolsDir,
		GitHubAPI:      DefaultGitHubAPI,
		GitHubTokenEnv: DefaultGitHubTokenEnv,
		Tools:          map[string]Tool{},
		Dir:            dir,
	}
}

// Load reads path. A missing file yields the defaults with no tools.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg := Default(filepath.Dir(abs))

	md, err := toml.DecodeFile(abs, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parsing %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	seen := make(map[string]bool, len(cfg.Tools))
	for _, key := range md.Keys() {
		if len(key) >= 2 && key[0] == "tools" && !seen[key[1]] {
			seen[key[1]] = true
			cfg.Order = append(cfg.Order, key[1])
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxParallel < 0 {
		return fmt.Errorf("max_parallel must not be negative")
	}
	for name, tool := range c.Tools {
		if len(tool.Targets) == 0 {
			return fmt.Errorf("tool %s: no targets", name)
		}
		for key, src := range tool.Targets {
			if src.Strip < 0 {
				return fmt.Errorf("tool %s, target %s: strip must not be negative", name, key)
			}
		}
	}
	return c.validateDestinations()
}

// validateDestinations keeps every tool in its own directory below the tools
// root. Downloads clear their destination, so overlapping ones would wipe
// each other.
func (c *Config) validateDestinations() error {
	owners := make(map[string]string, len(c.Order))
	var dests []string
	for _, name := range c.Order {
		tool, ok := c.Tools[name]
		if !ok {
			continue
		}
		dest, err := LocalDestination(tool.DestinationOr(name))
		if err != nil {
			return fmt.Errorf("tool %s: %w", name, err)
		}
		for _, other := range dests {
			if nested(dest, other) || nested(other, dest) {
				return fmt.Errorf("tool %s: destination %s overlaps %s of tool %s", name, dest, other, owners[other])
			}
		}
		owners[dest] = name
		dests = append(dests, dest)
	}
	return nil
}

// LocalDestination cleans dest and rejects anything that is not a directory
// strictly inside the tools root.
func LocalDestination(dest string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(dest))
	if !filepath.IsLocal(clean) || clean == "." {
		return "", fmt.Errorf("destination %q must be a relative path inside the tools root", dest)
	}
	return clean, nil
}

// nested reports whether child is parent or lies below it.
func nested(child, parent string) bool {
	return child == parent || strings.HasPrefix(child, parent+string(filepath.Separator))
}

// Resolve makes p absolute against the config directory. Empty stays empty.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

func (c *Config) ToolsPath() string {
	return c.Resolve(c.ToolsDir)
}

func (c *Config) CachePath() string {
	return c.Resolve(c.CacheDir)
}

// DestinationOr is the tool directory relative to the tools root, defaulting to name.
func (t Tool) DestinationOr(name string) string {
	if t.Destination != "" {
		return t.Destination
	}
	return name
}

func (c *Config) GitHubToken() string {
	if c.GitHubTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.GitHubTokenEnv)
}
