package postprocessors

import (
	"github.com/harborline/docsift/internal/core/domain"
	"github.com/harborline/docsift/internal/core/ports/driven"
	"github.com/harborline/docsift/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the
// registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// NewDefaultPipeline builds the standard chunking pipeline from sync
// settings.
func NewDefaultPipeline(sync domain.SyncSettings) *Pipeline {
	return NewPipeline(chunker.New(
		chunker.WithChunkSize(sync.ChunkSize),
		chunker.WithOverlap(sync.ChunkOverlap),
	))
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - chunk_overlap (int): Overlapping characters (default: 200)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if _, ok := cfg["chunk_overlap"]; ok {
			opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "chunk_overlap")))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from a generic config map.
// Handles int, int64 and float64, which is what TOML and JSON parsing
// produce.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
