package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
)

// Config holds all configurable paths and conversion settings.
type Config struct {
	// Paths
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`

	// Packing
	Mode       string `json:"mode"` // og, ogm, ogmh or plain
	OutputSize int    `json:"output_size"`

	// Per-channel sources for single-material runs. Empty paths fall back
	// to the default fill values.
	AOPath       string  `json:"ao_path"`
	GlossPath    string  `json:"gloss_path"`
	MetallicPath string  `json:"metallic_path"`
	HeightPath   string  `json:"height_path"`
	NormalPath   string  `json:"normal_path"`
	AODefault    float64 `json:"ao_default"`
	GlossDefault float64 `json:"gloss_default"`

	// Toksvig
	Toksvig           bool    `json:"toksvig"`
	ToksvigSimplified bool    `json:"toksvig_simplified"`
	CompositePower    float64 `json:"composite_power"`
	MinToksvigLevel   int     `json:"min_toksvig_level"`
	EnergyPreserving  bool    `json:"energy_preserving"`
	SmoothVariance    bool    `json:"smooth_variance"`
	VarianceThreshold float64 `json:"variance_threshold"`

	// AO/metallic remap
	RemapMode string  `json:"remap_mode"` // none, bias or percentile
	RemapBias float64 `json:"remap_bias"`
	RemapPct  float64 `json:"remap_percentile"`

	// Encoder handoff
	Format           string  `json:"format"`    // etc1s or uastc
	Container        string  `json:"container"` // ktx2 or basis
	Quality          int     `json:"quality"`
	RDOLambda        float64 `json:"rdo_lambda"`
	Supercompression bool    `json:"supercompression"`

	Workers int `json:"workers"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir   string
	OutputDir  string
	Mode       string
	OutputSize int
	Workers    int
	Quality    int
}

// Resolve merges CLI flags over file values and fills in defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Mode != "" {
		c.Mode = flags.Mode
	}
	if flags.OutputSize > 0 {
		c.OutputSize = flags.OutputSize
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Quality > 0 {
		c.Quality = flags.Quality
	}

	if c.Mode == "" {
		c.Mode = "ogm"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Quality <= 0 {
		c.Quality = 128
	}
	if c.RemapMode == "" {
		c.RemapMode = "none"
	}
	if c.Format == "" {
		c.Format = "etc1s"
	}
	if c.Container == "" {
		c.Container = "ktx2"
	}
	if c.GlossDefault == 0 && c.GlossPath == "" {
		c.GlossDefault = 0.5
	}
	if c.AODefault == 0 && c.AOPath == "" {
		c.AODefault = 1.0
	}
}
