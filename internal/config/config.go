// Package config implements the ambient process configuration: a YAML
// document layering a user-level base with an optional project-local
// override, the way the teacher's internal/config layers wing.yaml
// settings, with hardcoded defaults filling in anything left unset.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/codex-vfs/vfsh/internal/workdir"
)

// Config is the process-wide default set read from vfsh.yaml.
type Config struct {
	MountAllowed   string `yaml:"mount_allowed,omitempty"`   // "true"/"false"; see resolveBool
	ConflictPolicy string `yaml:"conflict_policy,omitempty"` // "manual", "oldest", "newest"

	AutosaveDelaySeconds         int `yaml:"autosave_delay_seconds,omitempty"`
	CrashRecoveryIntervalSeconds int `yaml:"crash_recovery_interval_seconds,omitempty"`

	LogicMinConfidence float64 `yaml:"logic_min_confidence,omitempty"`
	ContextMaxTokens   int     `yaml:"context_max_tokens,omitempty"`
}

const (
	defaultMountAllowed                 = false
	defaultConflictPolicy               = "manual"
	defaultAutosaveDelaySeconds         = 10
	defaultCrashRecoveryIntervalSeconds = 180
	defaultLogicMinConfidence           = 0.8
	defaultContextMaxTokens             = 8000
)

// Manager holds the user and project documents plus their merge.
type Manager struct {
	userConfig    *Config
	projectConfig *Config
	merged        *Config
}

func NewManager() *Manager {
	return &Manager{
		userConfig:    &Config{},
		projectConfig: &Config{},
		merged:        &Config{},
	}
}

// Load reads <userConfigDir>/vfsh.yaml and <projectDir>/.vfsh/vfsh.yaml;
// a missing file is not an error (zero-value config, matching the
// teacher's loadConfig). Project settings override user settings, which
// override the hardcoded defaults.
func (m *Manager) Load(userConfigDir, projectDir string) error {
	if err := m.loadConfig(filepath.Join(userConfigDir, "vfsh.yaml"), m.userConfig); err != nil {
		return err
	}
	if err := m.loadConfig(filepath.Join(projectDir, ".vfsh", "vfsh.yaml"), m.projectConfig); err != nil {
		return err
	}
	m.mergeConfigs()
	return nil
}

func (m *Manager) loadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (m *Manager) mergeConfigs() {
	m.merged = &Config{
		MountAllowed:                 firstNonEmpty(m.projectConfig.MountAllowed, m.userConfig.MountAllowed, ""),
		ConflictPolicy:               firstNonEmpty(m.projectConfig.ConflictPolicy, m.userConfig.ConflictPolicy, defaultConflictPolicy),
		AutosaveDelaySeconds:         firstNonZeroInt(m.projectConfig.AutosaveDelaySeconds, m.userConfig.AutosaveDelaySeconds, defaultAutosaveDelaySeconds),
		CrashRecoveryIntervalSeconds: firstNonZeroInt(m.projectConfig.CrashRecoveryIntervalSeconds, m.userConfig.CrashRecoveryIntervalSeconds, defaultCrashRecoveryIntervalSeconds),
		LogicMinConfidence:           firstNonZeroFloat(m.projectConfig.LogicMinConfidence, m.userConfig.LogicMinConfidence, defaultLogicMinConfidence),
		ContextMaxTokens:             firstNonZeroInt(m.projectConfig.ContextMaxTokens, m.userConfig.ContextMaxTokens, defaultContextMaxTokens),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZeroInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroFloat(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func (m *Manager) Get() *Config {
	return m.merged
}

// MountAllowedBool resolves the merged MountAllowed string, defaulting
// to defaultMountAllowed when unset or unrecognized.
func (c *Config) MountAllowedBool() bool {
	switch c.MountAllowed {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultMountAllowed
	}
}

// ConflictPolicyValue resolves the merged ConflictPolicy string to its
// workdir.ConflictPolicy constant, defaulting to Manual when unset or
// unrecognized.
func (c *Config) ConflictPolicyValue() workdir.ConflictPolicy {
	switch c.ConflictPolicy {
	case "oldest":
		return workdir.Oldest
	case "newest":
		return workdir.Newest
	default:
		return workdir.Manual
	}
}

// SaveUserConfig writes the in-memory user document to userConfigDir.
func (m *Manager) SaveUserConfig(userConfigDir string) error {
	if err := os.MkdirAll(userConfigDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(m.userConfig)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(userConfigDir, "vfsh.yaml"), data, 0o644)
}

// SaveProjectConfig writes the in-memory project document to
// <projectDir>/.vfsh/vfsh.yaml.
func (m *Manager) SaveProjectConfig(projectDir string) error {
	dir := filepath.Join(projectDir, ".vfsh")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(m.projectConfig)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "vfsh.yaml"), data, 0o644)
}
