package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/username/weeklygiving/src/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Settings is the user-editable configuration resource stored next to the log.
type Settings struct {
	FileLoc             string            `json:"fileLoc"`
	SpecialDesignations map[string]string `json:"specialDesignations"`
	MaxChecks           int               `json:"maxChecks"`
	Name                string            `json:"name"`
	IncludeSpecial      bool              `json:"includeSpecial"`

	path string
}

// LoadSettings reads the settings file at path. When the file does not exist yet and
// templatePath is set, the template is copied into place first.
func LoadSettings(path, templatePath string) (*Settings, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && templatePath != "" {
		if err := copyTemplate(templatePath, path); err != nil {
			return nil, &models.ConfigError{Path: templatePath, Err: err}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigError{Path: path, Err: err}
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &models.ConfigError{Path: path, Err: fmt.Errorf("invalid settings file: %w", err)}
	}
	s.path = path
	if err := s.Validate(); err != nil {
		return nil, &models.ConfigError{Path: path, Err: err}
	}
	return &s, nil
}

func copyTemplate(templatePath, path string) error {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("default settings template missing: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the ranges the rest of the application relies on.
func (s *Settings) Validate() error {
	if s.MaxChecks < models.MinCheckCount || s.MaxChecks > models.MaxCheckCount {
		return fmt.Errorf("maxChecks must be between %d and %d, got %d",
			models.MinCheckCount, models.MaxCheckCount, s.MaxChecks)
	}
	if len(s.SpecialDesignations) == 0 {
		return errors.New("specialDesignations must name at least one designation")
	}
	for key := range s.SpecialDesignations {
		if _, ok := specIndex(key); !ok {
			return fmt.Errorf("invalid special designation key %q", key)
		}
	}
	return nil
}

// Path returns the file the settings were loaded from.
func (s *Settings) Path() string { return s.path }

// Save rewrites the whole settings file.
func (s *Settings) Save() error {
	if s.path == "" {
		return &models.ConfigError{Err: errors.New("settings have no file path")}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return &models.ConfigError{Path: s.path, Err: err}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &models.ConfigError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return &models.ConfigError{Path: s.path, Err: err}
	}
	return nil
}

// Clone returns an independent copy.
func (s *Settings) Clone() *Settings {
	c := *s
	c.SpecialDesignations = make(map[string]string, len(s.SpecialDesignations))
	for k, v := range s.SpecialDesignations {
		c.SpecialDesignations[k] = v
	}
	return &c
}

// SpecialCount is the number of special designation slots, i.e. the highest specN key.
func (s *Settings) SpecialCount() int {
	highest := 0
	for key := range s.SpecialDesignations {
		if n, ok := specIndex(key); ok && n > highest {
			highest = n
		}
	}
	return highest
}

// SpecialLabels returns the designation labels ordered spec1..specN.
// Missing keys get a generic label.
func (s *Settings) SpecialLabels() []string {
	keys := make([]int, 0, len(s.SpecialDesignations))
	for key := range s.SpecialDesignations {
		if n, ok := specIndex(key); ok {
			keys = append(keys, n)
		}
	}
	sort.Ints(keys)

	labels := make([]string, s.SpecialCount())
	for i := range labels {
		labels[i] = fmt.Sprintf("Designation %d", i+1)
	}
	for _, n := range keys {
		labels[n-1] = s.SpecialDesignations[models.SpecialColumn(n-1)]
	}
	return labels
}

// SetSpecialLabel renames the i-th (zero based) designation.
func (s *Settings) SetSpecialLabel(i int, label string) error {
	if i < 0 || i >= s.SpecialCount() {
		return fmt.Errorf("special designation %d does not exist", i+1)
	}
	s.SpecialDesignations[models.SpecialColumn(i)] = label
	return nil
}

func specIndex(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "spec")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
