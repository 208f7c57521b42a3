// Package config loads handsign settings. Environment variables override the
// YAML file, which overrides built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ayusman/handsign/internal/capture"
	"github.com/ayusman/handsign/internal/classifier"
	"github.com/ayusman/handsign/internal/dataset"
	"github.com/ayusman/handsign/internal/detector"
	"github.com/ayusman/handsign/internal/vocab"
)

// EnvPrefix prefixes environment overrides, e.g. HANDSIGN_SERVER_ADDR.
const EnvPrefix = "HANDSIGN"

// Config is the full application configuration.
type Config struct {
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`
	Camera     CameraConfig     `mapstructure:"camera"`
	Detector   DetectorConfig   `mapstructure:"detector"`
	Collection CollectionConfig `mapstructure:"collection"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Model      ModelConfig      `mapstructure:"model"`
	Store      StoreConfig      `mapstructure:"store"`
	Server     ServerConfig     `mapstructure:"server"`
	Trainer    TrainerConfig    `mapstructure:"trainer"`
	Log        LogConfig        `mapstructure:"log"`
}

// VocabularyConfig names the signs either inline or through a YAML file.
// Inline signs win when both are set.
type VocabularyConfig struct {
	Signs []string `mapstructure:"signs"`
	File  string   `mapstructure:"file"`
}

type CameraConfig struct {
	Device int    `mapstructure:"device"`
	Source string `mapstructure:"source"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	FPS    int    `mapstructure:"fps"`
	Mirror bool   `mapstructure:"mirror"`
}

type DetectorConfig struct {
	Script          string  `mapstructure:"script"`
	Python          string  `mapstructure:"python"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
	MinTrackingConf float64 `mapstructure:"min_tracking_confidence"`
	MaxHands        int     `mapstructure:"max_hands"`
}

type CollectionConfig struct {
	TargetCount int `mapstructure:"target_count"`
}

type DatasetConfig struct {
	ValidationFraction  float64 `mapstructure:"validation_fraction"`
	Seed                int64   `mapstructure:"seed"`
	AllowMissingClasses bool    `mapstructure:"allow_missing_classes"`
	ExportDir           string  `mapstructure:"export_dir"`
}

type ModelConfig struct {
	Kind              string `mapstructure:"kind"`
	Path              string `mapstructure:"path"`
	MetadataPath      string `mapstructure:"metadata_path"`
	SharedLibraryPath string `mapstructure:"shared_library_path"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"static_dir"`
}

type TrainerConfig struct {
	Dir       string `mapstructure:"dir"`
	Name      string `mapstructure:"name"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
	OutputDir string `mapstructure:"output_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// homeDir is ~/.handsign, or .handsign when the home directory is unknown.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".handsign"
	}
	return filepath.Join(home, ".handsign")
}

func setDefaults(v *viper.Viper) {
	base := homeDir()
	cam := capture.DefaultConfig()
	det := detector.DefaultConfig()

	// Every key needs a default so environment overrides reach Unmarshal.
	v.SetDefault("vocabulary.signs", []string{})
	v.SetDefault("vocabulary.file", "")

	v.SetDefault("camera.device", cam.Device)
	v.SetDefault("camera.source", "")
	v.SetDefault("camera.width", cam.Width)
	v.SetDefault("camera.height", cam.Height)
	v.SetDefault("camera.fps", cam.FPS)
	v.SetDefault("camera.mirror", cam.Mirror)

	v.SetDefault("detector.min_confidence", det.MinConfidence)
	v.SetDefault("detector.min_tracking_confidence", det.MinTrackingConf)
	v.SetDefault("detector.max_hands", det.MaxHands)
	v.SetDefault("detector.script", "")
	v.SetDefault("detector.python", "")

	v.SetDefault("collection.target_count", 150)

	v.SetDefault("dataset.validation_fraction", dataset.DefaultValidationFraction)
	v.SetDefault("dataset.seed", dataset.DefaultSeed)
	v.SetDefault("dataset.allow_missing_classes", false)
	v.SetDefault("dataset.export_dir", filepath.Join(base, "dataset"))

	v.SetDefault("model.kind", classifier.KindONNX)
	v.SetDefault("model.path", filepath.Join(base, "model", "model.onnx"))
	v.SetDefault("model.metadata_path", filepath.Join(base, "model", "metadata.json"))
	v.SetDefault("model.shared_library_path", "")

	v.SetDefault("store.path", filepath.Join(base, "handsign.db"))

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "")

	v.SetDefault("trainer.dir", "plugins")
	v.SetDefault("trainer.name", "centroid-trainer")
	v.SetDefault("trainer.timeout_ms", 600000)
	v.SetDefault("trainer.output_dir", filepath.Join(base, "model"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. With an empty path it looks for handsign.yaml in
// the working directory and ~/.handsign; a missing file is not an error there.
// An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("handsign")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(homeDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func (c *Config) expandPaths() {
	for _, p := range []*string{
		&c.Vocabulary.File,
		&c.Camera.Source,
		&c.Detector.Script,
		&c.Dataset.ExportDir,
		&c.Model.Path,
		&c.Model.MetadataPath,
		&c.Store.Path,
		&c.Server.StaticDir,
		&c.Trainer.Dir,
		&c.Trainer.OutputDir,
	} {
		*p = expandHome(*p)
	}
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	if c.Collection.TargetCount <= 0 {
		return fmt.Errorf("collection.target_count must be positive, got %d", c.Collection.TargetCount)
	}
	if f := c.Dataset.ValidationFraction; f < 0 || f >= 1 {
		return fmt.Errorf("dataset.validation_fraction must be in [0, 1), got %v", f)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be in [0, 1], got %v", c.Detector.MinConfidence)
	}
	if c.Trainer.TimeoutMs <= 0 {
		return fmt.Errorf("trainer.timeout_ms must be positive, got %d", c.Trainer.TimeoutMs)
	}
	return nil
}

// LoadVocabulary builds the single vocabulary shared by every command.
func (c *Config) LoadVocabulary() (*vocab.Vocabulary, error) {
	if len(c.Vocabulary.Signs) > 0 {
		return vocab.New(c.Vocabulary.Signs)
	}
	if c.Vocabulary.File != "" {
		return vocab.Load(c.Vocabulary.File)
	}
	return nil, fmt.Errorf("no vocabulary configured: set vocabulary.signs or vocabulary.file: %w", vocab.ErrEmpty)
}

// CaptureConfig maps the camera section onto capture.Config.
func (c *Config) CaptureConfig() capture.Config {
	return capture.Config{
		Device: c.Camera.Device,
		Source: c.Camera.Source,
		Width:  c.Camera.Width,
		Height: c.Camera.Height,
		FPS:    c.Camera.FPS,
		Mirror: c.Camera.Mirror,
	}
}

// DetectorConfig maps the detector section onto detector.Config.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConf,
		Script:          c.Detector.Script,
		Python:          c.Detector.Python,
	}
}

// DatasetConfig maps the dataset section onto dataset.Config.
func (c *Config) DatasetConfig(v *vocab.Vocabulary) dataset.Config {
	return dataset.Config{
		Vocabulary:          v,
		ValidationFraction:  c.Dataset.ValidationFraction,
		Seed:                c.Dataset.Seed,
		AllowMissingClasses: c.Dataset.AllowMissingClasses,
	}
}

// ClassifierOptions maps the model section onto classifier.Options.
func (c *Config) ClassifierOptions() classifier.Options {
	return classifier.Options{
		Kind:              c.Model.Kind,
		ModelPath:         c.Model.Path,
		MetadataPath:      c.Model.MetadataPath,
		SharedLibraryPath: c.Model.SharedLibraryPath,
	}
}
