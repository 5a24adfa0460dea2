// Package epochfsconfig holds the configuration a deployment supplies
// to an Fs instance: the BlobStore prefixes and the size knobs that
// the core treats as constants but which production deployments may
// still want to see spelled out explicitly in config.
package epochfsconfig

import (
	"github.com/epochfs/epochfs/internal/bytesize"
	"github.com/epochfs/epochfs/pkg/checkpoint"
	"github.com/epochfs/epochfs/pkg/chunk"
)

// Config configures one Fs instance. Every field has a spec-mandated
// default; the zero value of Config is valid and produces exactly that
// default behavior.
type Config struct {
	// DataPrefix is where content-addressed chunks are written.
	// Defaults to "data/".
	DataPrefix string `mapstructure:"data_prefix"`

	// LogPrefix is where checkpoint records are written. Defaults to
	// "logs/".
	LogPrefix string `mapstructure:"log_prefix"`

	// ChunkSize records the size of one data chunk. Accepts
	// human-readable sizes ("8Mi", "8388608"). Defaults to 8 MiB.
	// It is not passed to the chunk store or the file writer, which
	// always split at chunk.DefaultChunkSize; setting it does not change
	// chunk boundaries.
	ChunkSize bytesize.ByteSize `mapstructure:"chunk_size"`

	// FilesBlobSizeLimit is the boundary on encoded File-record bytes
	// per files-blob during checkpoint commit. Defaults to 8 MiB.
	FilesBlobSizeLimit bytesize.ByteSize `mapstructure:"files_blob_size_limit"`
}

// WithDefaults returns a copy of c with every zero-valued field
// replaced by its spec default.
func (c Config) WithDefaults() Config {
	if c.DataPrefix == "" {
		c.DataPrefix = chunk.DefaultDataPrefix
	}
	if c.LogPrefix == "" {
		c.LogPrefix = checkpoint.DefaultLogPrefix
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = bytesize.ByteSize(chunk.DefaultChunkSize)
	}
	if c.FilesBlobSizeLimit == 0 {
		c.FilesBlobSizeLimit = bytesize.ByteSize(8 * bytesize.MiB)
	}
	return c
}
