package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// ErrNoCandidatesFile is returned when no candidates manifest exists.
var ErrNoCandidatesFile = errors.New("no candidates manifest found")

// candidateSpec is the YAML shape of one candidate entry. Timeout is a
// duration string ("30s") rather than raw nanoseconds.
type candidateSpec struct {
	ID           string              `yaml:"id"`
	Adapter      string              `yaml:"adapter"`
	Model        string              `yaml:"model"`
	Capabilities models.Capabilities `yaml:"capabilities"`
	CostPerToken float64             `yaml:"cost_per_token"`
	Timeout      string              `yaml:"timeout"`
}

// candidatesManifest is the YAML document shape for the manifest.
type candidatesManifest struct {
	Candidates []candidateSpec `yaml:"candidates"`
}

// LoadCandidates reads a candidate manifest from the given path. Every
// candidate must validate; duplicate ids are rejected.
func LoadCandidates(path string) ([]*models.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidates manifest: %w", err)
	}

	var manifest candidatesManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing candidates manifest: %w", err)
	}
	if len(manifest.Candidates) == 0 {
		return nil, fmt.Errorf("candidates manifest %s lists no candidates", path)
	}

	seen := make(map[string]bool)
	candidates := make([]*models.Candidate, 0, len(manifest.Candidates))
	for _, spec := range manifest.Candidates {
		cand := &models.Candidate{
			ID:           spec.ID,
			Adapter:      spec.Adapter,
			Model:        spec.Model,
			Capabilities: spec.Capabilities,
			CostPerToken: spec.CostPerToken,
		}
		if spec.Timeout != "" {
			timeout, err := time.ParseDuration(spec.Timeout)
			if err != nil {
				return nil, fmt.Errorf("candidates manifest %s: candidate %q timeout: %w", path, spec.ID, err)
			}
			cand.Timeout = timeout
		}
		if err := cand.Validate(); err != nil {
			return nil, fmt.Errorf("candidates manifest %s: %w", path, err)
		}
		if seen[cand.ID] {
			return nil, fmt.Errorf("candidates manifest %s: duplicate candidate id %q", path, cand.ID)
		}
		seen[cand.ID] = true
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// FindCandidatesManifest locates the candidate manifest, preferring a
// project-local .arbiter/candidates.yaml over the user config dir.
func FindCandidatesManifest() (string, error) {
	cwd, err := os.Getwd()
	if err == nil {
		for {
			path := filepath.Join(cwd, ".arbiter", "candidates.yaml")
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
			parent := filepath.Dir(cwd)
			if parent == cwd {
				break
			}
			cwd = parent
		}
	}

	path := filepath.Join(getUserConfigDir(), "candidates.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", ErrNoCandidatesFile
}
