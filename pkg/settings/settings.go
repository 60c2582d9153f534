// Package settings loads pgmirror's runtime configuration.
//
// Configuration is layered, later layers winning: embedded defaults,
// an optional pgmirror.toml (working directory, then the XDG config
// directory), then PGMIRROR_* and PG_* environment variables.
package settings

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/pgmirror/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// ConfigFileName is the optional settings file picked up from the working
// directory or the XDG config directory.
const ConfigFileName = "pgmirror.toml"

// Postgres holds database connection settings.
type Postgres struct {
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	User        string `koanf:"user"`
	Password    string `koanf:"password"`
	SSLMode     string `koanf:"sslmode"`
	SSLRootCert string `koanf:"sslrootcert"`
}

// Checkpoint selects and configures the checkpoint backend.
type Checkpoint struct {
	Backend    string `koanf:"backend"`
	Path       string `koanf:"path"`
	SQLitePath string `koanf:"sqlite_path"`
}

// Redis configures the redis checkpoint backend.
type Redis struct {
	URL           string `koanf:"url"`
	Namespace     string `koanf:"namespace"`
	SocketTimeout int    `koanf:"socket_timeout"`
}

// Settings is the resolved runtime configuration.
type Settings struct {
	Postgres   Postgres   `koanf:"postgres"`
	Checkpoint Checkpoint `koanf:"checkpoint"`
	Redis      Redis      `koanf:"redis"`
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// Load resolves settings from defaults, optional file and environment.
func Load() (*Settings, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Optional settings file: working directory first, then XDG config dir
	for _, path := range []string{
		ConfigFileName,
		filepath.Join(xdg.ConfigHome, "pgmirror", ConfigFileName),
	} {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load settings from %s", path)
			}
			break
		}
	}

	// 3. PGMIRROR_CHECKPOINT_BACKEND style overrides. Only the first
	// underscore separates the section from the key, so multi-word keys
	// like PGMIRROR_CHECKPOINT_SQLITE_PATH map to checkpoint.sqlite_path.
	if err := k.Load(env.Provider("PGMIRROR_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "PGMIRROR_")), "_", ".", 1)
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	// 4. PG_HOST, PG_PORT, PG_USER, PG_PASSWORD, PG_SSLMODE, PG_SSLROOTCERT
	if err := k.Load(env.Provider("PG_", ".", func(s string) string {
		return "postgres." + strings.ToLower(strings.TrimPrefix(s, "PG_"))
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load PG_ environment overrides")
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal settings")
	}

	return &s, nil
}
