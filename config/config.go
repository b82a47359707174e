package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"go-stepseq/sequencer"
)

// AppName names the config directory.
const AppName = "go-stepseq"

// MIDIConfig selects the output port
type MIDIConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  uint8  `json:"channel,omitempty"` // 1-16
}

// AudioConfig controls the clock that drives the engine
type AudioConfig struct {
	SampleRate int  `json:"sampleRate,omitempty"`
	BlockSize  int  `json:"blockSize,omitempty"`
	UseDevice  bool `json:"useDevice"` // false = ticker clock, no audio device
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastTempo int    `json:"lastTempo,omitempty"`
	Palette   string `json:"palette,omitempty"` // path to a .gpl palette
	Project   string `json:"project,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	MIDI   MIDIConfig            `json:"midi"`
	Audio  AudioConfig           `json:"audio"`
	Engine sequencer.ParamsState `json:"engine"`
	UI     UIConfig              `json:"ui,omitempty"`
	Debug  bool                  `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MIDI: MIDIConfig{
			Channel: 1,
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			BlockSize:  512,
			UseDevice:  true,
		},
		Engine: sequencer.DefaultParams(),
		UI: UIConfig{
			LastTempo: 120,
			Project:   "untitled",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ProjectsDir returns where project saves live
func ProjectsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "projects"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Missing fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Environment overrides
const (
	EnvMIDIOut    = "STEPSEQ_MIDI_OUT"
	EnvChannel    = "STEPSEQ_CHANNEL"
	EnvSampleRate = "STEPSEQ_SAMPLE_RATE"
	EnvBlockSize  = "STEPSEQ_BLOCK_SIZE"
	EnvBPM        = "STEPSEQ_BPM"
	EnvAudio      = "STEPSEQ_AUDIO"
	EnvDebug      = "STEPSEQ_DEBUG"
)

// LoadEnv reads .env files into the environment. Missing files are fine;
// variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("loading env: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from STEPSEQ_* variables. Malformed values are
// reported and leave the field unchanged.
func (c *Config) ApplyEnv() error {
	var errs []string
	bad := func(name, v string) {
		errs = append(errs, fmt.Sprintf("%s=%q", name, v))
	}

	if v := os.Getenv(EnvMIDIOut); v != "" {
		c.MIDI.PortName = v
	}
	if v := os.Getenv(EnvChannel); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 16 {
			c.MIDI.Channel = uint8(n)
		} else {
			bad(EnvChannel, v)
		}
	}
	if v := os.Getenv(EnvSampleRate); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Audio.SampleRate = n
		} else {
			bad(EnvSampleRate, v)
		}
	}
	if v := os.Getenv(EnvBlockSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Audio.BlockSize = n
		} else {
			bad(EnvBlockSize, v)
		}
	}
	if v := os.Getenv(EnvBPM); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.UI.LastTempo = n
		} else {
			bad(EnvBPM, v)
		}
	}
	if v := os.Getenv(EnvAudio); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Audio.UseDevice = b
		} else {
			bad(EnvAudio, v)
		}
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		} else {
			bad(EnvDebug, v)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, ", "))
	}
	return nil
}
