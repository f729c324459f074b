package domain

import (
	"fmt"
	"time"
)

// Default processing parameters.
const (
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultBatchSize        = 25
	DefaultSyncInterval     = time.Hour
	DefaultFetchTimeout     = 2 * time.Minute
	DefaultInsertTimeout    = 30 * time.Second
	DefaultWorkers          = 4
	DefaultHistoryRetention = 100
)

// Settings holds the full pipeline configuration, loaded from the
// TOML config file and passed explicitly into the services that need
// it. There is no ambient global configuration.
type Settings struct {
	Source SourceSettings `toml:"source"`
	Store  StoreSettings  `toml:"store"`
	Sync   SyncSettings   `toml:"sync"`
}

// SourceSettings selects and configures the content source.
type SourceSettings struct {
	// Type is "filesystem" or "sharepoint".
	Type string `toml:"type"`

	// Path is the folder to fetch from (local directory or remote
	// library path).
	Path string `toml:"path"`

	// Formats restricts fetching to these formats. Empty means all.
	Formats []string `toml:"formats"`

	// MaxItems caps how many items one fetch returns. Zero means no
	// limit.
	MaxItems int `toml:"max_items"`

	// MaxAge restricts fetching to items modified within this window.
	// Zero means no restriction.
	MaxAge time.Duration `toml:"max_age"`

	SharePoint SharePointSettings `toml:"sharepoint"`
}

// SharePointSettings configures the Microsoft Graph drive source.
type SharePointSettings struct {
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	SiteName     string `toml:"site_name"`
	DriveID      string `toml:"drive_id"`
}

// StoreSettings selects and configures the document store.
type StoreSettings struct {
	// Type is "sqlite", "pgvector" or "memory".
	Type string `toml:"type"`

	// DataDir is the sqlite data directory. Empty uses the default
	// under the user's home.
	DataDir string `toml:"data_dir"`

	// PostgresDSN is the pgvector connection string.
	PostgresDSN string `toml:"postgres_dsn"`
}

// SyncSettings tunes the pipeline and scheduler.
type SyncSettings struct {
	ChunkSize        int           `toml:"chunk_size"`
	ChunkOverlap     int           `toml:"chunk_overlap"`
	BatchSize        int           `toml:"batch_size"`
	Interval         time.Duration `toml:"interval"`
	FetchTimeout     time.Duration `toml:"fetch_timeout"`
	InsertTimeout    time.Duration `toml:"insert_timeout"`
	Workers          int           `toml:"workers"`
	HistoryRetention int           `toml:"history_retention"`
}

// DefaultSettings returns a ready-to-run local configuration.
func DefaultSettings() Settings {
	return Settings{
		Source: SourceSettings{
			Type: "filesystem",
			Path: ".",
		},
		Store: StoreSettings{
			Type: "sqlite",
		},
		Sync: SyncSettings{
			ChunkSize:        DefaultChunkSize,
			ChunkOverlap:     DefaultChunkOverlap,
			BatchSize:        DefaultBatchSize,
			Interval:         DefaultSyncInterval,
			FetchTimeout:     DefaultFetchTimeout,
			InsertTimeout:    DefaultInsertTimeout,
			Workers:          DefaultWorkers,
			HistoryRetention: DefaultHistoryRetention,
		},
	}
}

// Normalise fills zero values with defaults and clamps inconsistent
// combinations (overlap must stay below chunk size).
func (s *Settings) Normalise() {
	d := DefaultSettings()
	if s.Sync.ChunkSize <= 0 {
		s.Sync.ChunkSize = d.Sync.ChunkSize
	}
	if s.Sync.ChunkOverlap < 0 {
		s.Sync.ChunkOverlap = d.Sync.ChunkOverlap
	}
	if s.Sync.ChunkOverlap >= s.Sync.ChunkSize {
		s.Sync.ChunkOverlap = s.Sync.ChunkSize / 4
	}
	if s.Sync.BatchSize <= 0 {
		s.Sync.BatchSize = d.Sync.BatchSize
	}
	if s.Sync.Interval <= 0 {
		s.Sync.Interval = d.Sync.Interval
	}
	if s.Sync.FetchTimeout <= 0 {
		s.Sync.FetchTimeout = d.Sync.FetchTimeout
	}
	if s.Sync.InsertTimeout <= 0 {
		s.Sync.InsertTimeout = d.Sync.InsertTimeout
	}
	if s.Sync.Workers <= 0 {
		s.Sync.Workers = d.Sync.Workers
	}
	if s.Sync.HistoryRetention <= 0 {
		s.Sync.HistoryRetention = d.Sync.HistoryRetention
	}
	if s.Source.Type == "" {
		s.Source.Type = d.Source.Type
	}
	if s.Store.Type == "" {
		s.Store.Type = d.Store.Type
	}
}

// Validate checks that the configuration is usable.
func (s *Settings) Validate() error {
	switch s.Source.Type {
	case "filesystem":
		if s.Source.Path == "" {
			return fmt.Errorf("%w: filesystem source requires a path", ErrInvalidInput)
		}
	case "sharepoint":
		sp := s.Source.SharePoint
		if sp.TenantID == "" || sp.ClientID == "" || sp.ClientSecret == "" {
			return fmt.Errorf("%w: sharepoint source requires tenant_id, client_id and client_secret", ErrInvalidInput)
		}
		if sp.DriveID == "" && sp.SiteName == "" {
			return fmt.Errorf("%w: sharepoint source requires drive_id or site_name", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown source type %q", ErrInvalidInput, s.Source.Type)
	}

	switch s.Store.Type {
	case "sqlite", "memory":
	case "pgvector":
		if s.Store.PostgresDSN == "" {
			return fmt.Errorf("%w: pgvector store requires postgres_dsn", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown store type %q", ErrInvalidInput, s.Store.Type)
	}

	return nil
}
