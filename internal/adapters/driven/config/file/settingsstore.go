// Package file persists the pipeline configuration as a TOML file.
// Durations are written in Go notation ("90s", "1h30m") rather than
// raw nanoseconds so the file stays hand-editable.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/harborline/docsift/internal/core/domain"
)

// SettingsStore reads and writes the TOML configuration file.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
}

// NewSettingsStore creates a TOML-based settings store.
// If configDir is empty, defaults to ~/.docsift/config.toml.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".docsift")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads the configuration, applying defaults for anything unset.
// A missing file yields the default configuration without error.
func (s *SettingsStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			settings := domain.DefaultSettings()
			settings.Normalise()
			return settings, nil
		}
		return domain.Settings{}, err
	}

	var raw fileSettings
	if err := toml.Unmarshal(data, &raw); err != nil {
		return domain.Settings{}, fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	settings, err := raw.toDomain()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	settings.Normalise()
	return settings, nil
}

// Save persists the configuration with restricted permissions; the
// file may carry SharePoint credentials.
func (s *SettingsStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(fromDomain(settings))
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// fileSettings mirrors domain.Settings with string durations.
type fileSettings struct {
	Source fileSourceSettings `toml:"source"`
	Store  fileStoreSettings  `toml:"store"`
	Sync   fileSyncSettings   `toml:"sync"`
}

type fileSourceSettings struct {
	Type       string                    `toml:"type"`
	Path       string                    `toml:"path"`
	Formats    []string                  `toml:"formats,omitempty"`
	MaxItems   int                       `toml:"max_items,omitempty"`
	MaxAge     string                    `toml:"max_age,omitempty"`
	SharePoint domain.SharePointSettings `toml:"sharepoint,omitempty"`
}

type fileStoreSettings struct {
	Type        string `toml:"type"`
	DataDir     string `toml:"data_dir,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

type fileSyncSettings struct {
	ChunkSize        int    `toml:"chunk_size"`
	ChunkOverlap     int    `toml:"chunk_overlap"`
	BatchSize        int    `toml:"batch_size"`
	Interval         string `toml:"interval"`
	FetchTimeout     string `toml:"fetch_timeout"`
	InsertTimeout    string `toml:"insert_timeout"`
	Workers          int    `toml:"workers"`
	HistoryRetention int    `toml:"history_retention"`
}

func (f fileSettings) toDomain() (domain.Settings, error) {
	interval, err := parseDuration("sync.interval", f.Sync.Interval)
	if err != nil {
		return domain.Settings{}, err
	}
	fetchTimeout, err := parseDuration("sync.fetch_timeout", f.Sync.FetchTimeout)
	if err != nil {
		return domain.Settings{}, err
	}
	insertTimeout, err := parseDuration("sync.insert_timeout", f.Sync.InsertTimeout)
	if err != nil {
		return domain.Settings{}, err
	}
	maxAge, err := parseDuration("source.max_age", f.Source.MaxAge)
	if err != nil {
		return domain.Settings{}, err
	}

	return domain.Settings{
		Source: domain.SourceSettings{
			Type:       f.Source.Type,
			Path:       f.Source.Path,
			Formats:    f.Source.Formats,
			MaxItems:   f.Source.MaxItems,
			MaxAge:     maxAge,
			SharePoint: f.Source.SharePoint,
		},
		Store: domain.StoreSettings{
			Type:        f.Store.Type,
			DataDir:     f.Store.DataDir,
			PostgresDSN: f.Store.PostgresDSN,
		},
		Sync: domain.SyncSettings{
			ChunkSize:        f.Sync.ChunkSize,
			ChunkOverlap:     f.Sync.ChunkOverlap,
			BatchSize:        f.Sync.BatchSize,
			Interval:         interval,
			FetchTimeout:     fetchTimeout,
			InsertTimeout:    insertTimeout,
			Workers:          f.Sync.Workers,
			HistoryRetention: f.Sync.HistoryRetention,
		},
	}, nil
}

func fromDomain(s domain.Settings) fileSettings {
	return fileSettings{
		Source: fileSourceSettings{
			Type:       s.Source.Type,
			Path:       s.Source.Path,
			Formats:    s.Source.Formats,
			MaxItems:   s.Source.MaxItems,
			MaxAge:     formatDuration(s.Source.MaxAge),
			SharePoint: s.Source.SharePoint,
		},
		Store: fileStoreSettings{
			Type:        s.Store.Type,
			DataDir:     s.Store.DataDir,
			PostgresDSN: s.Store.PostgresDSN,
		},
		Sync: fileSyncSettings{
			ChunkSize:        s.Sync.ChunkSize,
			ChunkOverlap:     s.Sync.ChunkOverlap,
			BatchSize:        s.Sync.BatchSize,
			Interval:         s.Sync.Interval.String(),
			FetchTimeout:     s.Sync.FetchTimeout.String(),
			InsertTimeout:    s.Sync.InsertTimeout.String(),
			Workers:          s.Sync.Workers,
			HistoryRetention: s.Sync.HistoryRetention,
		},
	}
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
