package config

import (
	"os"

	"github.com/politia/politia/internal/envstruct"
	"github.com/politia/politia/internal/errors"
)

// Settings holds all runtime configuration. Values come from the environment,
// optionally seeded from a .env file by the CLI entrypoint.
type Settings struct {
	// DatabaseURL is the path to the SQLite database file or ":memory:".
	DatabaseURL string `env:"POLITIA_DATABASE_URL" envDefault:"./data/politia.sqlite"`

	// OpenParlamentoDataPath is the directory of downloaded person JSON files.
	OpenParlamentoDataPath string `env:"POLITIA_OPENPARLAMENTO_DATA_PATH" envDefault:"./data/raw/openparlamento"`
	// CameraDataPath is the directory of downloaded transcript JSON files.
	CameraDataPath string `env:"POLITIA_CAMERA_DATA_PATH" envDefault:"./data/raw/camera"`

	// OpenParlamentoAPIBase is the base URL of the OpenParlamento API.
	OpenParlamentoAPIBase string `env:"POLITIA_OPENPARLAMENTO_API_BASE" envDefault:"https://service.opdm.openpolis.io/api-openparlamento/v1/19"`

	// Legislature selects the legislature for transcript fetching.
	Legislature int `env:"POLITIA_LEGISLATURE" envDefault:"19"`

	// FetchRateLimitSeconds is the fixed delay between remote requests.
	FetchRateLimitSeconds float64 `env:"POLITIA_FETCH_RATE_LIMIT" envDefault:"3.0"`

	// LogFile enables rotating file logging when non-empty.
	LogFile string `env:"POLITIA_LOG_FILE" envDefault:""`
}

// Load populates Settings from the process environment.
func Load() (Settings, error) {
	var settings Settings
	if err := envstruct.Populate(&settings, os.LookupEnv); err != nil {
		return Settings{}, errors.Wrap(err, "populate settings")
	}
	return settings, nil
}
