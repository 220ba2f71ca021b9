package artifacts

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	// FeaturesDir holds feature specs and increment plans.
	FeaturesDir = "features"
	// FutureFeaturesDir holds future-feature stubs.
	FutureFeaturesDir = "future-features"
	// PromptsDir holds one sub-directory of prompts per feature.
	PromptsDir = "prompts"
	// IncrementsSuffix marks a plan file next to its feature spec.
	IncrementsSuffix = "_increments"
	// Ext is the extension of every document.
	Ext = ".md"
)

var promptFilePattern = regexp.MustCompile(`^increment_(\d{2,})_(.+)\.md$`)

// FeaturesPath returns the absolute path to the features/ directory.
func FeaturesPath(projectRoot string) string {
	return filepath.Join(projectRoot, FeaturesDir)
}

// FutureFeaturesPath returns the absolute path to the future-features/ directory.
func FutureFeaturesPath(projectRoot string) string {
	return filepath.Join(projectRoot, FutureFeaturesDir)
}

// PromptsPath returns the absolute path to the prompts/ directory.
func PromptsPath(projectRoot string) string {
	return filepath.Join(projectRoot, PromptsDir)
}

// FeaturePath returns the path of a feature spec.
func FeaturePath(projectRoot, slug string) string {
	return filepath.Join(FeaturesPath(projectRoot), slug+Ext)
}

// IncrementsPath returns the path of a feature's increment plan.
func IncrementsPath(projectRoot, slug string) string {
	return filepath.Join(FeaturesPath(projectRoot), slug+IncrementsSuffix+Ext)
}

// FutureFeaturePath returns the path of a future-feature stub.
func FutureFeaturePath(projectRoot, slug string) string {
	return filepath.Join(FutureFeaturesPath(projectRoot), slug+Ext)
}

// PromptDir returns the directory holding one feature's prompts.
func PromptDir(projectRoot, featureSlug string) string {
	return filepath.Join(PromptsPath(projectRoot), featureSlug)
}

// PromptFileName returns "increment_{NN}_{desc-slug}.md" for an increment.
func PromptFileName(index int, name string) string {
	return fmt.Sprintf("increment_%02d_%s%s", index, Slugify(name), Ext)
}

// PromptPath returns the path of one increment's prompt document.
func PromptPath(projectRoot, featureSlug string, index int, name string) string {
	return filepath.Join(PromptDir(projectRoot, featureSlug), PromptFileName(index, name))
}

// PromptGlob returns the glob matching any prompt file for the given index.
func PromptGlob(index int) string {
	return fmt.Sprintf("increment_%02d_*%s", index, Ext)
}

// ParsePromptFileName extracts the increment index and description slug
// from a prompt file name. ok is false for names outside the scheme.
func ParsePromptFileName(name string) (index int, desc string, ok bool) {
	m := promptFilePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, "", false
	}
	return n, m[2], true
}

// ClassifyPath reports which document set a project-relative path belongs
// to and the slug it names. Paths outside the layout return ok=false.
func ClassifyPath(rel string) (kind Kind, slug string, ok bool) {
	rel = filepath.ToSlash(filepath.Clean(rel))
	parts := strings.Split(rel, "/")
	switch {
	case len(parts) == 2 && parts[0] == FeaturesDir && strings.HasSuffix(parts[1], Ext):
		base := strings.TrimSuffix(parts[1], Ext)
		if s, found := strings.CutSuffix(base, IncrementsSuffix); found {
			return KindIncrements, s, s != ""
		}
		return KindFeature, base, base != ""
	case len(parts) == 2 && parts[0] == FutureFeaturesDir && strings.HasSuffix(parts[1], Ext):
		base := strings.TrimSuffix(parts[1], Ext)
		return KindFutureFeature, base, base != ""
	case len(parts) == 3 && parts[0] == PromptsDir:
		if _, _, valid := ParsePromptFileName(parts[2]); valid {
			return KindPrompt, parts[1], true
		}
	}
	return "", "", false
}
