// Package config handles loading, validation, and merging of cycheck
// configuration files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mika/cycheck/internal/model"
)

// Config is the complete cycheck configuration.
type Config struct {
	CLI        CLIConfig                 `toml:"cli"`
	Checklist  ChecklistConfig           `toml:"checklist"`
	Run        RunConfig                 `toml:"run"`
	Categories map[string]CategoryConfig `toml:"categories"`
}

// CLIConfig describes the external expert-cli invocation.
type CLIConfig struct {
	// Path to the expert-cli binary
	Path string `toml:"path"`
	// Expert identifier, e.g. "neo4j@0.2.3"
	Expert string `toml:"expert"`
	// Device selector: cpu, cuda, metal (passed through when set)
	Device string `toml:"device"`
	// Generation token bound
	MaxTokens int `toml:"maxTokens"`
	// Sampling parameters
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"topP"`
	TopK        int     `toml:"topK"`
	// Pass the prompt through without the chat template
	RawPrompt bool `toml:"rawPrompt"`
	// Per-case timeout in seconds
	TimeoutSeconds int `toml:"timeoutSeconds"`
}

// ChecklistConfig locates the checklist document and its companions.
type ChecklistConfig struct {
	// Path to the checklist markdown document
	Path string `toml:"path"`
	// Title written into freshly scaffolded checklists
	Title string `toml:"title"`
	// Optional TOML file mapping case ids to schema blocks
	Schemas string `toml:"schemas"`
}

// RunConfig holds execution defaults.
type RunConfig struct {
	// Parallel workers; values below 2 mean sequential execution
	Parallel int `toml:"parallel"`
	// Directory for run records
	OutputRoot string `toml:"outputRoot"`
	// Captured output cap in bytes
	MaxOutputBytes int `toml:"maxOutputBytes"`
}

// CategoryConfig pins the expected shape of one category. The category set is
// closed: expectations are validated against the loaded catalog instead of
// being inferred from prose headers.
type CategoryConfig struct {
	// Expected number of cases in this category
	Expected int `toml:"expected"`
}

// Load reads configuration from a TOML file. When path is empty the default
// cycheck.toml is tried; a missing default is not an error (nil config is
// returned so the caller can scaffold one), but a missing explicit path is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = "cycheck.toml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, nil
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	undecoded := metadata.Undecoded()
	if len(undecoded) > 0 {
		var unknown []string
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		return nil, fmt.Errorf("unknown fields in config: %s", strings.Join(unknown, ", "))
	}

	return &cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		CLI: CLIConfig{
			Path:           "expert-cli",
			Expert:         "neo4j@0.2.3",
			MaxTokens:      500,
			Temperature:    0.1,
			TopP:           0.95,
			TopK:           20,
			TimeoutSeconds: 60,
		},
		Checklist: ChecklistConfig{
			Path:  "test_checklist.md",
			Title: "Expert Neo4j Test Checklist",
		},
		Run: RunConfig{
			Parallel:       1,
			OutputRoot:     ".cycheck",
			MaxOutputBytes: 8192,
		},
		Categories: map[string]CategoryConfig{},
	}
}

// MergeWithDefaults fills unset fields from the built-in defaults.
func MergeWithDefaults(cfg *Config) Config {
	defaults := Defaults()
	if cfg == nil {
		return defaults
	}

	if cfg.CLI.Path == "" {
		cfg.CLI.Path = defaults.CLI.Path
	}
	if cfg.CLI.Expert == "" {
		cfg.CLI.Expert = defaults.CLI.Expert
	}
	if cfg.CLI.MaxTokens == 0 {
		cfg.CLI.MaxTokens = defaults.CLI.MaxTokens
	}
	if cfg.CLI.Temperature == 0 {
		cfg.CLI.Temperature = defaults.CLI.Temperature
	}
	if cfg.CLI.TopP == 0 {
		cfg.CLI.TopP = defaults.CLI.TopP
	}
	if cfg.CLI.TopK == 0 {
		cfg.CLI.TopK = defaults.CLI.TopK
	}
	if cfg.CLI.TimeoutSeconds == 0 {
		cfg.CLI.TimeoutSeconds = defaults.CLI.TimeoutSeconds
	}
	if cfg.Checklist.Path == "" {
		cfg.Checklist.Path = defaults.Checklist.Path
	}
	if cfg.Checklist.Title == "" {
		cfg.Checklist.Title = defaults.Checklist.Title
	}
	if cfg.Run.Parallel == 0 {
		cfg.Run.Parallel = defaults.Run.Parallel
	}
	if cfg.Run.OutputRoot == "" {
		cfg.Run.OutputRoot = defaults.Run.OutputRoot
	}
	if cfg.Run.MaxOutputBytes == 0 {
		cfg.Run.MaxOutputBytes = defaults.Run.MaxOutputBytes
	}
	if cfg.Categories == nil {
		cfg.Categories = map[string]CategoryConfig{}
	}

	return *cfg
}

// ValidateCatalog checks the loaded catalog against the configured category
// expectations. Categories without an expectation are accepted as-is;
// configured categories must exist and carry the expected case count.
func (c *Config) ValidateCatalog(catalog *model.Catalog) error {
	if len(c.Categories) == 0 {
		return nil
	}

	byName := map[string]int{}
	for i := range catalog.Categories {
		byName[catalog.Categories[i].Name] = len(catalog.Categories[i].Cases)
	}

	for name, cat := range c.Categories {
		count, ok := byName[name]
		if !ok {
			return fmt.Errorf("configured category %q not present in checklist", name)
		}
		if cat.Expected > 0 && count != cat.Expected {
			return fmt.Errorf("category %q has %d cases, expected %d", name, count, cat.Expected)
		}
	}

	return nil
}

// LoadSchemas reads the optional schemas file: a TOML table mapping case ids
// to schema description blocks sent alongside each prompt.
func LoadSchemas(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	var doc struct {
		Schemas map[string]string `toml:"schemas"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schemas file %s: %w", path, err)
	}
	return doc.Schemas, nil
}

// GenerateDefault creates a starter cycheck.toml at path. Fails if the file
// already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	content := `# cycheck configuration file

[cli]
path = "expert-cli"
expert = "neo4j@0.2.3"
maxTokens = 500
temperature = 0.1
topP = 0.95
topK = 20
timeoutSeconds = 60

[checklist]
path = "test_checklist.md"
title = "Expert Neo4j Test Checklist"

[run]
parallel = 1
outputRoot = ".cycheck"
maxOutputBytes = 8192
`

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
