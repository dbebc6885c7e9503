package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config describes one image descriptor consumed by motectl: enough to
// stand up a Program with a demo class table and either build a fresh
// snapshot or inspect an existing one.
type Config struct {
	Image struct {
		BytecodeSize int    `toml:"bytecode-size"`
		Snapshot     string `toml:"snapshot"`
	} `toml:"image"`

	Demo struct {
		StringContent string `toml:"string-content"`
		ByteArrayLen  int    `toml:"byte-array-length"`
		ArrayLen      int    `toml:"array-length"`
		StackLen      int    `toml:"stack-length"`
	} `toml:"demo"`
}

// loadConfig parses a motectl.toml descriptor from path.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if cfg.Image.BytecodeSize <= 0 {
		cfg.Image.BytecodeSize = 256
	}
	if cfg.Image.Snapshot == "" {
		cfg.Image.Snapshot = "motectl.snapshot"
	}
	if cfg.Demo.ArrayLen <= 0 {
		cfg.Demo.ArrayLen = 4
	}
	if cfg.Demo.StackLen <= 0 {
		cfg.Demo.StackLen = 32
	}
	return &cfg, nil
}
