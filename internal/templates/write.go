package templates

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zeebo/blake3"

	"github.com/HendryAvila/polly/internal/artifacts"
)

// Result describes one persisted document.
type Result struct {
	Kind      artifacts.Kind `json:"kind"`
	Path      string         `json:"path"`
	Bytes     int            `json:"bytes"`
	Digest    string         `json:"digest"`
	Overwrote bool           `json:"overwrote"`
}

// Digest returns the hex BLAKE3-256 digest of a rendered document.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Write renders kind and persists it at path atomically.
//
// Without overwrite an existing file yields *ArtifactExistsError. For
// prompts, increment N is refused with *OutOfOrderError until a prompt
// file for increment N-1 exists in the same directory.
func (r *Renderer) Write(kind artifacts.Kind, fields Fields, path string, overwrite bool) (*Result, error) {
	data, err := r.Render(kind, fields)
	if err != nil {
		return nil, err
	}

	existed := artifacts.Exists(path)
	if existed && !overwrite {
		return nil, &ArtifactExistsError{Path: path}
	}

	if kind == artifacts.KindPrompt {
		if err := checkPromptOrder(path, fields); err != nil {
			return nil, err
		}
	}

	if err := artifacts.WriteFileAtomic(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	return &Result{
		Kind:      kind,
		Path:      path,
		Bytes:     len(data),
		Digest:    Digest(data),
		Overwrote: existed,
	}, nil
}

// checkPromptOrder refuses a prompt whose predecessor has not been written.
// Fields were already validated by Render, so the index is well formed.
func checkPromptOrder(path string, fields Fields) error {
	index, _ := asInt(fields["increment_index"])
	if index <= 1 {
		return nil
	}

	dir := filepath.Dir(path)
	matches, err := doublestar.Glob(os.DirFS(dir), artifacts.PromptGlob(index-1))
	if err != nil {
		return fmt.Errorf("checking previous prompt in %s: %w", dir, err)
	}
	if len(matches) == 0 {
		feature, _ := asText(fields["feature_slug"])
		return &OutOfOrderError{Feature: feature, Index: index, Missing: index - 1}
	}
	return nil
}
