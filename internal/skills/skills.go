// Package skills reads the metadata of agent skills.
//
// A skill is a directory holding a SKILL.md whose YAML front matter names
// the skill and says when to use it. Only the metadata is loaded; the
// agent reads the full instructions itself when a skill applies.
package skills

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/polly/internal/artifacts"
)

// FileName is the instructions file of every skill.
const FileName = "SKILL.md"

// Skill is the metadata of one skill.
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// Path is relative to the parent of the skills directory, e.g.
	// "skills/feature-discovery/SKILL.md".
	Path string `json:"path"`
}

type header struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Load reads every <dir>/*/SKILL.md. Files without front matter, or
// missing a name or description, are skipped with a warning. A missing
// directory yields no skills. Results are sorted by name.
func Load(dir string, logger *slog.Logger) []Skill {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "*/"+FileName)
	if err != nil {
		logger.Warn("skills: listing failed", "dir", dir, "err", err)
		return nil
	}

	var out []Skill
	for _, rel := range matches {
		s, err := loadOne(dir, rel)
		if err != nil {
			logger.Warn("skills: skipped", "path", filepath.Join(dir, rel), "err", err)
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var errNoFrontMatter = errors.New("no front matter")

func loadOne(dir, rel string) (Skill, error) {
	data, err := fs.ReadFile(os.DirFS(dir), rel)
	if err != nil {
		return Skill{}, err
	}
	fm, _, found := artifacts.SplitFrontMatter(data)
	if !found {
		return Skill{}, errNoFrontMatter
	}
	var h header
	if err := yaml.Unmarshal(fm, &h); err != nil {
		return Skill{}, fmt.Errorf("parsing front matter: %w", err)
	}
	h.Name, h.Description = strings.TrimSpace(h.Name), strings.TrimSpace(h.Description)
	if h.Name == "" || h.Description == "" {
		return Skill{}, errors.New("front matter needs name and description")
	}
	return Skill{
		Name:        h.Name,
		Description: h.Description,
		Path:        filepath.ToSlash(filepath.Join(filepath.Base(dir), rel)),
	}, nil
}

// Format renders skills as one "**name**: description" line each.
func Format(skills []Skill) string {
	if len(skills) == 0 {
		return "No skills available."
	}
	lines := make([]string, len(skills))
	for i, s := range skills {
		lines[i] = fmt.Sprintf("**%s**: %s", s.Name, s.Description)
	}
	return strings.Join(lines, "\n")
}
