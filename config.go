package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultBluetoothctl   = "bluetoothctl"
	defaultCommandTimeout = 10 * time.Second
)

var defaultDiscoverCommand = []string{"bt-device", "-l"}

// Duration accepts "10s" style strings or integer nanoseconds in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

type Config struct {
	DiscoverCommand []string `json:"discover_command"`
	Bluetoothctl    string   `json:"bluetoothctl"`
	CommandTimeout  Duration `json:"command_timeout"`
	SocketPath      string   `json:"socket_path"`
	WatchBluez      bool     `json:"watch_bluez"`
	// HonorRequestedDirection toggles toward the UI's requested direction
	// instead of away from the freshly observed state.
	HonorRequestedDirection bool      `json:"honor_requested_direction"`
	Log                     LogConfig `json:"log"`
}

func defaultConfig() Config {
	return Config{
		DiscoverCommand: append([]string(nil), defaultDiscoverCommand...),
		Bluetoothctl:    defaultBluetoothctl,
		CommandTimeout:  Duration(defaultCommandTimeout),
		SocketPath:      socketPath(),
		WatchBluez:      true,
		Log:             defaultLogConfig(),
	}
}

func configPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "btswitch", "config.json")
}

func socketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = "/tmp"
	}
	return filepath.Join(dir, "btswitch.sock")
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Log.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.DiscoverCommand) == 0 {
		return errors.New("config: discover_command must not be empty")
	}
	if c.Bluetoothctl == "" {
		c.Bluetoothctl = defaultBluetoothctl
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("config: negative command_timeout %s", time.Duration(c.CommandTimeout))
	}
	if c.SocketPath == "" {
		c.SocketPath = socketPath()
	}
	return nil
}
