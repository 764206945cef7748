// Package di provides dependency injection container
package di

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/ssargent/packetwire/pkg/api"
	"github.com/ssargent/packetwire/pkg/codec"
	"github.com/ssargent/packetwire/pkg/compress"
	"github.com/ssargent/packetwire/pkg/config"
	"github.com/ssargent/packetwire/pkg/storage"
)

// Container holds all the dependencies for the application. Components are
// built on first use from the configuration.
type Container struct {
	config *config.Config
	logger zerolog.Logger

	mu      sync.Mutex
	codec   *codec.PacketCodec
	archive *storage.Archive
	metrics *api.Metrics
}

// NewContainer creates a new dependency injection container. A nil cfg uses
// config.DefaultConfig.
func NewContainer(cfg *config.Config, logger zerolog.Logger) *Container {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Container{config: cfg, logger: logger}
}

// Config returns the configuration the container was built with
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// Codec returns the packet codec configured from the codec section
func (c *Container) Codec() *codec.PacketCodec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.codec == nil {
		cc := c.config.Codec
		opts := []codec.CodecOption{
			codec.WithRegistry(compress.NewDefaultRegistry(cc.MaxDecodedBytes)),
			codec.WithMaxPayloadBytes(cc.MaxPayloadBytes),
		}
		if cc.AllowTrailing {
			opts = append(opts, codec.WithAllowTrailing())
		}
		c.codec = codec.NewPacketCodec(opts...)
	}
	return c.codec
}

// Compression resolves a compression codec by name. An empty name selects the
// configured default.
func (c *Container) Compression(name string) (compress.Codec, error) {
	if name == "" {
		name = c.config.Codec.Compression
	}
	return c.Codec().Registry().ByName(name)
}

// Archive opens the packet archive on first use
func (c *Container) Archive() (*storage.Archive, error) {
	pc := c.Codec()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.archive == nil {
		archive, err := storage.Open(c.config.Archive.DataDir, pc, storage.Options{Sync: c.config.Archive.Sync})
		if err != nil {
			return nil, errors.Wrap(err, "failed to open archive")
		}
		c.logger.Debug().Str("data_dir", c.config.Archive.DataDir).Msg("archive opened")
		c.archive = archive
	}
	return c.archive, nil
}

// Metrics returns the API metrics
func (c *Container) Metrics() *api.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metrics == nil {
		c.metrics = api.NewMetrics()
	}
	return c.metrics
}

// Server assembles the API server from the configuration
func (c *Container) Server() (*api.Server, error) {
	archive, err := c.Archive()
	if err != nil {
		return nil, err
	}

	cfg := api.ServerConfig{
		Bind:           c.config.Server.Bind,
		Port:           c.config.Server.Port,
		APIKey:         c.config.Server.APIKey,
		Compression:    c.config.Codec.Compression,
		VerifyOnDecode: c.config.Codec.VerifyOnDecode,
	}
	return api.NewServer(c.Codec(), archive, cfg, c.Metrics(), c.logger), nil
}

// Close releases the archive if it was opened
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.archive == nil {
		return nil
	}
	err := c.archive.Close()
	c.archive = nil
	return err
}
