// Copyright 2024 The Envelope Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads settings for envelope servers from a TOML file and
// ENVELOPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// EnvPrefix is stripped from environment variables read by Load.
const EnvPrefix = "ENVELOPE_"

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Server  Server  `toml:"server"`
	Log     Log     `toml:"log"`
	Listing Listing `toml:"listing"`
}

type Server struct {
	Addr string `toml:"addr"`
	Gzip bool   `toml:"gzip"`
	// CompressMinBytes is the largest body sent uncompressed.
	CompressMinBytes int `toml:"compress_min_bytes"`
	// Files is the directory file downloads are served from.
	Files string `toml:"files"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Listing struct {
	Limit int `toml:"limit"`
	Max   int `toml:"max"`
}

// Default returns the settings used for anything not configured.
func Default() Config {
	return Config{
		Server: Server{
			Addr:             "127.0.0.1:8080",
			Gzip:             true,
			CompressMinBytes: 1024,
			Files:            ".",
		},
		Log: Log{
			Level:  zerolog.LevelInfoValue,
			Format: FormatConsole,
		},
		Listing: Listing{
			Limit: 200,
			Max:   2000,
		},
	}
}

// Load reads the TOML file at path, if path isn't empty, over the defaults,
// then applies ENVELOPE_* variables from environ (for example
// ENVELOPE_SERVER_ADDR sets server.addr) and validates the result.
func Load(path string, environ []string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
	}
	overrides := FromEnviron(environ, EnvOptions{
		UnderscoreSeparator: true,
		UppercaseNames:      true,
		Prefix:              EnvPrefix,
	})
	if err := cfg.apply(overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(values map[string]string) error {
	for key, raw := range values {
		value := strings.TrimSpace(raw)
		var err error
		switch key {
		case "server.addr":
			c.Server.Addr = value
		case "server.gzip":
			c.Server.Gzip, err = strconv.ParseBool(value)
		case "server.compress.min.bytes":
			c.Server.CompressMinBytes, err = strconv.Atoi(value)
		case "server.files":
			c.Server.Files = value
		case "log.level":
			c.Log.Level = strings.ToLower(value)
		case "log.format":
			c.Log.Format = strings.ToLower(value)
		case "listing.limit":
			c.Listing.Limit, err = strconv.Atoi(value)
		case "listing.max":
			c.Listing.Max, err = strconv.Atoi(value)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.CompressMinBytes < 0 {
		errs = append(errs, errors.New("server.compress_min_bytes must not be negative"))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be %q or %q, got %q", FormatConsole, FormatJSON, c.Log.Format))
	}
	if c.Listing.Limit <= 0 {
		errs = append(errs, errors.New("listing.limit must be positive"))
	}
	if c.Listing.Max < c.Listing.Limit {
		errs = append(errs, errors.New("listing.max must be at least listing.limit"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger described by the log settings, writing to w
// (stderr if nil). Console output is colored only on terminals.
func (l Log) NewLogger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log.level: %w", err)
	}
	if w == nil {
		w = os.Stderr
	}
	if l.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
