package storyboard

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/shortsreel/internal/system"
)

// DefaultDir holds storyboards written without an explicit path.
const DefaultDir = "storyboards"

// Write writes a storyboard to a YAML file, creating parent directories.
func Write(sb *Storyboard, path string) error {
	data, err := yaml.Marshal(sb)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Read reads a storyboard from a YAML file.
func Read(path string) (*Storyboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sb Storyboard
	if err := yaml.Unmarshal(data, &sb); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if sb.Version == "" {
		sb.Version = Version
	}
	return &sb, nil
}

// GeneratePath creates a timestamped storyboard filename in dir.
func GeneratePath(dir string, now time.Time) string {
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, fmt.Sprintf("storyboard_%s.yaml", now.Format("2006-01-02_15-04-05")))
}

// FindLatest finds the most recently modified storyboard in dir.
func FindLatest(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	return system.FindLatest(dir, []string{".yaml", ".yml"})
}
