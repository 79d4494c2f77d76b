package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/DesolationStaging/mediarm/policy"
)

const (
	defaultSurrenderTimeout = 5 * time.Second

	envSurrenderTimeout                 = "MEDIARM_SURRENDER_TIMEOUT"
	envSupportsMultipleSecureCodecs     = "MEDIARM_SUPPORTS_MULTIPLE_SECURE_CODECS"
	envSupportsSecureWithNonSecureCodec = "MEDIARM_SUPPORTS_SECURE_WITH_NONSECURE_CODEC"

	envSocket     = "MEDIARM_SOCKET"
	envRuntimeDir = "MEDIARM_RUNTIME_DIR"
)

// SocketPath resolves the daemon's UNIX socket path for a given uid, so the
// same environment overrides that configure timeouts and policy flags also
// govern where the daemon and its clients find each other. Order of
// precedence (first wins):
//  1. MEDIARM_SOCKET (absolute path to the socket itself)
//  2. MEDIARM_RUNTIME_DIR/<baseName>
//  3. on Linux: $XDG_RUNTIME_DIR/<baseName>, else /run/user/<uid>/<baseName>
//  4. elsewhere: /tmp/<uid>-<baseName>, keeping sockets from different users
//     out of each other's way on a shared /tmp
func SocketPath(baseName, uid string) string {
	if explicit := os.Getenv(envSocket); explicit != "" {
		return explicit
	}
	if rd := os.Getenv(envRuntimeDir); rd != "" {
		return filepath.Join(rd, baseName)
	}
	if runtime.GOOS == "linux" {
		if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
			return filepath.Join(v, baseName)
		}
		return filepath.Join("/run/user", uid, baseName)
	}
	return filepath.Join("/tmp", uid+"-"+baseName)
}

// Config aggregates tunable timeouts and default policy flags for the daemon.
type Config struct {
	SurrenderTimeout time.Duration
	Flags            policy.Flags
}

// Load builds a Config from an optional JSON file path plus environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		SurrenderTimeout: defaultSurrenderTimeout,
		Flags:            policy.Default(),
	}

	if path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		if fileCfg.SurrenderTimeout != 0 {
			cfg.SurrenderTimeout = fileCfg.SurrenderTimeout
		}
		cfg.Flags = fileCfg.Flags
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envSurrenderTimeout); v != "" {
		if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
			cfg.SurrenderTimeout = dur
		} else if err != nil {
			log.Printf("invalid %s value %q: %v", envSurrenderTimeout, v, err)
		}
	}

	if v := os.Getenv(envSupportsMultipleSecureCodecs); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Flags.SupportsMultipleSecureCodecs = b
		} else {
			log.Printf("invalid %s value %q: %v", envSupportsMultipleSecureCodecs, v, err)
		}
	}

	if v := os.Getenv(envSupportsSecureWithNonSecureCodec); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Flags.SupportsSecureWithNonSecureCodec = b
		} else {
			log.Printf("invalid %s value %q: %v", envSupportsSecureWithNonSecureCodec, v, err)
		}
	}
}

type fileConfig struct {
	SurrenderTimeout                 string `json:"surrender_timeout"`
	SupportsMultipleSecureCodecs     *bool  `json:"supports_multiple_secure_codecs"`
	SupportsSecureWithNonSecureCodec *bool  `json:"supports_secure_with_non_secure_codec"`
}

func loadFromFile(path string) (Config, error) {
	cfg := Config{
		SurrenderTimeout: defaultSurrenderTimeout,
		Flags:            policy.Default(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, err
	}

	if raw.SurrenderTimeout != "" {
		dur, err := time.ParseDuration(raw.SurrenderTimeout)
		if err != nil {
			return cfg, fmt.Errorf("parse surrender_timeout: %w", err)
		}
		if dur <= 0 {
			return cfg, errors.New("surrender_timeout must be > 0")
		}
		cfg.SurrenderTimeout = dur
	}
	if raw.SupportsMultipleSecureCodecs != nil {
		cfg.Flags.SupportsMultipleSecureCodecs = *raw.SupportsMultipleSecureCodecs
	}
	if raw.SupportsSecureWithNonSecureCodec != nil {
		cfg.Flags.SupportsSecureWithNonSecureCodec = *raw.SupportsSecureWithNonSecureCodec
	}

	return cfg, nil
}
