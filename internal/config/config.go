// Package config loads the settings of a training run.
//
// Two file formats are accepted. Files ending in ".yaml" or ".yml" are decoded
// as YAML. Anything else uses the line format
//
//	# comment
//	key = value
//
// Both formats share the same key names. Relative paths are resolved against
// the working directory of the process, not the config file.
package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for configs that parse but cannot be run.
var ErrInvalid = errors.New("invalid config")

// Defaults applied before a file is parsed.
const (
	DefaultSeed         int64 = 42
	DefaultLearningRate       = 0.001
)

// Config captures the runtime knobs for a training run.
type Config struct {
	TrainImages  string        `yaml:"rel_path_train_images"`
	TrainLabels  string        `yaml:"rel_path_train_labels"`
	TestImages   string        `yaml:"rel_path_test_images"`
	TestLabels   string        `yaml:"rel_path_test_labels"`
	LogFile      string        `yaml:"rel_path_log_file"`
	Epochs       int           `yaml:"num_epochs"`
	BatchSize    int           `yaml:"batch_size"`
	HiddenSize   int           `yaml:"hidden_size"`
	LearningRate float64       `yaml:"learning_rate"`
	Seed         int64         `yaml:"seed"`
	Shuffle      bool          `yaml:"shuffle"`
	TimeBudget   time.Duration `yaml:"time_budget"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Epochs       int
	BatchSize    int
	HiddenSize   int
	LearningRate float64
	Seed         int64
	Shuffle      bool
	TimeBudget   time.Duration
}

// Default returns a Config holding only the default values.
func Default() *Config {
	return &Config{
		Seed:         DefaultSeed,
		LearningRate: DefaultLearningRate,
	}
}

// Load reads and validates a Config.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read parses a Config without validating it, so that overrides can be
// applied first.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(bytes.NewReader(data))
	default:
		cfg, err = parseLines(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.HiddenSize > 0 {
		c.HiddenSize = o.HiddenSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Shuffle {
		c.Shuffle = true
	}
	if o.TimeBudget > 0 {
		c.TimeBudget = o.TimeBudget
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}
	paths := []struct{ key, value string }{
		{"rel_path_train_images", c.TrainImages},
		{"rel_path_train_labels", c.TrainLabels},
		{"rel_path_test_images", c.TestImages},
		{"rel_path_test_labels", c.TestLabels},
		{"rel_path_log_file", c.LogFile},
	}
	for _, p := range paths {
		if p.value == "" {
			return fmt.Errorf("%w: %s must be set", ErrInvalid, p.key)
		}
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: num_epochs must be > 0 (got %d)", ErrInvalid, c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be > 0 (got %d)", ErrInvalid, c.BatchSize)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("%w: hidden_size must be > 0 (got %d)", ErrInvalid, c.HiddenSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be > 0 (got %g)", ErrInvalid, c.LearningRate)
	}
	if c.TimeBudget < 0 {
		return fmt.Errorf("%w: time_budget must not be negative (got %s)", ErrInvalid, c.TimeBudget)
	}
	return nil
}

func parseYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

func parseLines(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '='", lineNo)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		if err := cfg.set(key, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "rel_path_train_images":
		c.TrainImages = value
	case "rel_path_train_labels":
		c.TrainLabels = value
	case "rel_path_test_images":
		c.TestImages = value
	case "rel_path_test_labels":
		c.TestLabels = value
	case "rel_path_log_file":
		c.LogFile = value
	case "num_epochs":
		c.Epochs, err = strconv.Atoi(value)
	case "batch_size":
		c.BatchSize, err = strconv.Atoi(value)
	case "hidden_size":
		c.HiddenSize, err = strconv.Atoi(value)
	case "learning_rate":
		c.LearningRate, err = strconv.ParseFloat(value, 64)
	case "seed":
		c.Seed, err = strconv.ParseInt(value, 10, 64)
	case "shuffle":
		c.Shuffle, err = strconv.ParseBool(value)
	case "time_budget":
		c.TimeBudget, err = time.ParseDuration(value)
	default:
		return fmt.Errorf("unknown key %s", key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
