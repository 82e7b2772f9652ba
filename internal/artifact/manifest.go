package artifact

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestVersion is written into every manifest.
const ManifestVersion = 1

// Manifest is the YAML form of a registry snapshot.
type Manifest struct {
	Version   int      `yaml:"version"`
	CacheDir  string   `yaml:"cache_dir"`
	Artifacts []Record `yaml:"artifacts"`
}

// ManifestParseError occurs when a manifest file is not valid YAML.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest at '%s': %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ArtifactNotFoundError occurs when a manifest references a file that is gone.
type ArtifactNotFoundError struct {
	ManifestPath string
	Artifact     string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("artifact '%s' not found (referenced in manifest '%s')",
		e.Artifact, e.ManifestPath)
}

// Snapshot captures the registry as a manifest.
func (r *Registry) Snapshot(cacheDir string) *Manifest {
	return &Manifest{
		Version:   ManifestVersion,
		CacheDir:  cacheDir,
		Artifacts: r.List(),
	}
}

// WriteManifest writes m to path as YAML.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest '%s': %w", path, err)
	}
	return nil
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{Path: path, Err: err}
	}
	return &m, nil
}

// Verify checks that every artifact in the manifest still exists on disk.
func (m *Manifest) Verify(manifestPath string) error {
	for _, rec := range m.Artifacts {
		if _, err := os.Stat(rec.Path); os.IsNotExist(err) {
			return &ArtifactNotFoundError{ManifestPath: manifestPath, Artifact: rec.Path}
		}
	}
	return nil
}
