package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// config is the daemon configuration, loadable from a TOML file.
type config struct {
	Addr      string
	Engine    string // "epoll" or "gnet"
	ChunkSize int
	Debug     bool
}

func defaultConfig() config {
	return config{
		Addr:   "127.0.0.1:65432",
		Engine: "epoll",
	}
}

type fileConfig struct {
	Addr      string `toml:"addr"`
	Engine    string `toml:"engine"`
	ChunkSize int    `toml:"chunk_size"`
	Debug     bool   `toml:"debug"`
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("addr") {
		if addr := strings.TrimSpace(raw.Addr); addr != "" {
			cfg.Addr = addr
		}
	}

	if meta.IsDefined("engine") {
		engine := strings.ToLower(strings.TrimSpace(raw.Engine))
		switch engine {
		case "epoll", "gnet":
			cfg.Engine = engine
		default:
			return config{}, fmt.Errorf("unknown engine %q", engine)
		}
	}

	if meta.IsDefined("chunk_size") {
		if raw.ChunkSize <= 0 {
			return config{}, fmt.Errorf("chunk_size must be positive, got %d", raw.ChunkSize)
		}
		cfg.ChunkSize = raw.ChunkSize
	}

	if meta.IsDefined("debug") {
		cfg.Debug = raw.Debug
	}

	return cfg, nil
}
