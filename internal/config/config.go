package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models checkline.yml.
type Config struct {
	Service struct {
		URL    string `yaml:"url"`
		Token  string `yaml:"token"`
		APIKey string `yaml:"api_key"`
	} `yaml:"service"`
	Home string `yaml:"home"`
	User struct {
		ID   string `yaml:"id"`
		Role string `yaml:"role"`
	} `yaml:"user"`
	Programs    []string `yaml:"programs"`
	Interaction struct {
		AutoAdvance       *bool    `yaml:"auto_advance"`
		DeferCorrection   *bool    `yaml:"defer_correction"`
		SkipAnswered      *bool    `yaml:"skip_answered"`
		AutoSubmitChoice  *bool    `yaml:"auto_submit_choice"`
		ShowRelatedInList *bool    `yaml:"show_related_in_list"`
		Coloring          *bool    `yaml:"coloring"`
		SplitByProgram    *bool    `yaml:"split_by_program"`
		FilterTypes       []string `yaml:"filter_types"`
	} `yaml:"interaction"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with cl init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Service.URL == "" {
		return fmt.Errorf("config.service.url is required")
	}
	if c.Service.Token != "" && c.Service.APIKey != "" {
		return fmt.Errorf("config.service.token and config.service.api_key are mutually exclusive")
	}
	if c.User.Role == "" {
		return fmt.Errorf("config.user.role is required")
	}
	for i, id := range c.Programs {
		if id == "" {
			return fmt.Errorf("config.programs[%d] is empty", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "checkline.yml")
}

// Default returns the default Config struct for a local workspace.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `service:
  url: http://127.0.0.1:8787

home: local

user:
  id: local-user
  role: inspector

programs: []

interaction:
  auto_advance: true
  defer_correction: false
  skip_answered: true
  auto_submit_choice: false
  show_related_in_list: false
  coloring: true
  split_by_program: false
`
