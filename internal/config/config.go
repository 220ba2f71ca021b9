// Package config loads Polly's per-project settings.
//
// Settings live in <project>/.polly/config.yaml. Every field is optional:
// a missing file or a missing key falls back to DefaultConfig, and a few
// environment variables override whatever the file says.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/polly/internal/artifacts"
)

const (
	// Dir is the per-project settings directory.
	Dir = ".polly"
	// File is the settings file inside Dir.
	File = "config.yaml"

	EnvDataDir  = "POLLY_DATA_DIR"
	EnvLogLevel = "POLLY_LOG_LEVEL"
)

// DefaultWatchDebounce is how long watch mode waits for a burst of file
// events to settle.
const DefaultWatchDebounce = 200 * time.Millisecond

// Config holds the project settings.
type Config struct {
	// DataDir holds machine-local state such as the activity journal.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// Journal enables the activity journal.
	Journal bool `yaml:"journal" json:"journal"`
	// SkillsDir is scanned for */SKILL.md files. Relative paths resolve
	// against the project root.
	SkillsDir     string        `yaml:"skills_dir,omitempty" json:"skills_dir,omitempty"`
	LogLevel      string        `yaml:"log_level" json:"log_level"`
	WatchDebounce time.Duration `yaml:"watch_debounce" json:"watch_debounce"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:       filepath.Join(home, Dir),
		Journal:       true,
		LogLevel:      "info",
		WatchDebounce: DefaultWatchDebounce,
	}
}

// --- Path helpers ---

// DirPath returns <root>/.polly.
func DirPath(root string) string {
	return filepath.Join(root, Dir)
}

// Path returns <root>/.polly/config.yaml.
func Path(root string) string {
	return filepath.Join(root, Dir, File)
}

// Exists reports whether root has a settings file.
func Exists(root string) bool {
	_, err := os.Stat(Path(root))
	return err == nil
}

// --- Store ---

// Store loads and saves project settings.
type Store interface {
	Load(root string) (*Config, error)
	Save(root string, cfg *Config) error
}

// FileStore keeps settings in <root>/.polly/config.yaml.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads the settings of root. A missing file yields the defaults.
// Environment overrides are applied last.
func (s *FileStore) Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(root))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", File, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", File, err)
		}
	}

	cfg.applyEnv()
	cfg.resolve(root)
	return cfg, nil
}

// Save writes cfg to root, creating .polly/ as needed.
func (s *FileStore) Save(root string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", File, err)
	}
	if err := artifacts.WriteFileAtomic(Path(root), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", File, err)
	}
	return nil
}

// Load is FileStore.Load on a fresh store.
func Load(root string) (*Config, error) {
	return NewFileStore().Load(root)
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// resolve expands ~ and makes relative paths absolute against root.
func (c *Config) resolve(root string) {
	c.DataDir = expandHome(c.DataDir)
	if c.SkillsDir != "" {
		c.SkillsDir = expandHome(c.SkillsDir)
		if !filepath.IsAbs(c.SkillsDir) {
			c.SkillsDir = filepath.Join(root, c.SkillsDir)
		}
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = DefaultWatchDebounce
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Level maps LogLevel to a slog level. Unknown values mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// --- Project root ---

// rootMarkers are the artifact directories that identify a project root.
var rootMarkers = []string{artifacts.FeaturesDir, artifacts.FutureFeaturesDir, artifacts.PromptsDir}

// FindProjectRoot walks up from start looking for a settings file or any
// artifact directory. A bare .polly/ directory does not count: the default
// data directory is ~/.polly. If nothing is found it returns start, so the
// first write creates the project there.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	current := dir
	for {
		if Exists(current) {
			return current, nil
		}
		for _, m := range rootMarkers {
			if info, err := os.Stat(filepath.Join(current, m)); err == nil && info.IsDir() {
				return current, nil
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}

// FindProjectRootFromCwd is FindProjectRoot starting at the working
// directory.
func FindProjectRootFromCwd() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return FindProjectRoot(cwd)
}
