package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/packetwire/pkg/api"
	"github.com/ssargent/packetwire/pkg/codec"
	"github.com/ssargent/packetwire/pkg/config"
)

// resetFlags restores every flag to its default so commands can run more than
// once in a test binary.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI with stdin and returns stdout. A missing --config is
// pointed at a file that does not exist so defaults apply.
func execute(t *testing.T, ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	t.Helper()
	resetFlags(rootCmd)

	hasConfig := false
	for _, a := range args {
		if a == "--config" {
			hasConfig = true
		}
	}
	if !hasConfig {
		args = append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	}
	args = append(args, "--log-level", "disabled")

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(bytes.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer closeContainer()

	if ctx == nil {
		ctx = context.Background()
	}
	err := rootCmd.ExecuteContext(ctx)
	return stdout.Bytes(), err
}

func run(t *testing.T, stdin []byte, args ...string) ([]byte, error) {
	t.Helper()
	return execute(t, nil, stdin, args...)
}

func decodeJSON(t *testing.T, out []byte) api.PacketResponse {
	t.Helper()
	var resp api.PacketResponse
	require.NoError(t, json.Unmarshal(out, &resp), string(out))
	return resp
}

func TestChecksumCommand(t *testing.T) {
	out, err := run(t, []byte("123456789"), "checksum")
	require.NoError(t, err)
	assert.Equal(t, "cbf43926\n", string(out))

	out, err = run(t, nil, "checksum")
	require.NoError(t, err)
	assert.Equal(t, "00000000\n", string(out))
}

func TestEncodeDecodeCommands(t *testing.T) {
	t.Run("hex round trip", func(t *testing.T) {
		wireHex, err := run(t, nil, "encode", "--kind", "message", "--payload", "hello world hello world", "--hex")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(wireHex), "0101"), string(wireHex))

		out, err := run(t, wireHex, "decode", "--hex")
		require.NoError(t, err)

		resp := decodeJSON(t, out)
		assert.Equal(t, "message", resp.Kind)
		assert.Equal(t, "hello world hello world", string(resp.Payload))
		assert.Equal(t, "snappy", resp.Compression)
		assert.Nil(t, resp.ReactionKind)
		assert.False(t, resp.Serialized)
		assert.True(t, resp.Valid)
	})

	t.Run("reaction through files", func(t *testing.T) {
		dir := t.TempDir()
		in := filepath.Join(dir, "payload.txt")
		wire := filepath.Join(dir, "packet.bin")
		require.NoError(t, os.WriteFile(in, []byte("thumbs up"), 0600))

		_, err := run(t, nil, "encode", "--kind", "reaction", "--reaction", "like",
			"--compression", "zstd", "--in", in, "--out", wire)
		require.NoError(t, err)

		out, err := run(t, nil, "decode", "--in", wire, "--verify")
		require.NoError(t, err)

		resp := decodeJSON(t, out)
		assert.Equal(t, "reaction", resp.Kind)
		require.NotNil(t, resp.ReactionKind)
		assert.Equal(t, "like", *resp.ReactionKind)
		assert.Equal(t, "zstd", resp.Compression)
		assert.Equal(t, "thumbs up", string(resp.Payload))
	})

	t.Run("payload from stdin", func(t *testing.T) {
		wire, err := run(t, []byte("typing..."), "encode", "--kind", "typing")
		require.NoError(t, err)

		out, err := run(t, wire, "decode")
		require.NoError(t, err)
		resp := decodeJSON(t, out)
		assert.Equal(t, "typing", resp.Kind)
		assert.Equal(t, "typing...", string(resp.Payload))
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := run(t, nil, "encode", "--kind", "presence", "--payload", "x")
		assert.Error(t, err)

		_, err = run(t, nil, "encode", "--reaction", "laugh", "--payload", "x")
		assert.Error(t, err)

		_, err = run(t, nil, "encode", "--compression", "lz4", "--payload", "x")
		assert.Error(t, err)
	})
}

func TestDecodeCommand_Errors(t *testing.T) {
	wire, err := run(t, nil, "encode", "--payload", "strict")
	require.NoError(t, err)

	t.Run("malformed", func(t *testing.T) {
		_, err := run(t, []byte{0x02}, "decode")
		assert.ErrorIs(t, err, codec.ErrDecode)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		withTrailing := append(append([]byte(nil), wire...), 0xAB)

		_, err := run(t, withTrailing, "decode")
		assert.ErrorIs(t, err, codec.ErrDecode)

		out, err := run(t, withTrailing, "decode", "--allow-trailing")
		require.NoError(t, err)
		assert.Equal(t, "strict", string(decodeJSON(t, out).Payload))
	})

	t.Run("flipped checksum", func(t *testing.T) {
		flipped := append([]byte(nil), wire...)
		flipped[len(flipped)-2] ^= 0x01

		out, err := run(t, flipped, "decode")
		require.NoError(t, err)
		assert.False(t, decodeJSON(t, out).Valid)

		_, err = run(t, flipped, "decode", "--verify")
		assert.ErrorIs(t, err, codec.ErrChecksumMismatch)
	})
}

func TestVerifyCommand(t *testing.T) {
	wire, err := run(t, nil, "encode", "--payload", "verify me")
	require.NoError(t, err)

	out, err := run(t, wire, "verify")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "ok crc="))

	flipped := append([]byte(nil), wire...)
	flipped[len(flipped)-3] ^= 0x80
	_, err = run(t, flipped, "verify")
	assert.ErrorIs(t, err, codec.ErrChecksumMismatch)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	dataDir := filepath.Join(dir, "data")

	_, err := run(t, nil, "init", "--config", configPath, "--data-dir", dataDir)
	require.NoError(t, err)
	require.True(t, config.ConfigExists(configPath))

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, dataDir, cfg.Archive.DataDir)
	assert.Len(t, cfg.Server.APIKey, 64)

	t.Run("refuses to overwrite", func(t *testing.T) {
		_, err := run(t, nil, "init", "--config", configPath)
		assert.Error(t, err)

		unchanged, err := config.LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, cfg.Server.APIKey, unchanged.Server.APIKey)
	})

	t.Run("force overwrites", func(t *testing.T) {
		_, err := run(t, nil, "init", "--config", configPath, "--force")
		require.NoError(t, err)

		replaced, err := config.LoadConfig(configPath)
		require.NoError(t, err)
		assert.NotEqual(t, cfg.Server.APIKey, replaced.Server.APIKey)
	})
}

func TestConfigFileDrivesCodec(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.Codec.Compression = "zstd"
	require.NoError(t, config.SaveConfig(cfg, configPath))

	wire, err := run(t, nil, "encode", "--payload", "configured", "--config", configPath)
	require.NoError(t, err)

	out, err := run(t, wire, "decode", "--config", configPath)
	require.NoError(t, err)
	assert.Equal(t, "zstd", decodeJSON(t, out).Compression)

	t.Run("invalid config is rejected", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("codec:\n  compression: lz4\n"), 0600))

		_, err := run(t, []byte("x"), "checksum", "--config", bad)
		assert.Error(t, err)
	})
}

func TestArchiveCommands(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "archive")

	wire, err := run(t, nil, "encode", "--payload", "keep me")
	require.NoError(t, err)

	out, err := run(t, wire, "archive", "put", "--data-dir", dataDir)
	require.NoError(t, err)
	id := strings.TrimSpace(string(out))
	require.NotEmpty(t, id)

	t.Run("put rejects malformed", func(t *testing.T) {
		_, err := run(t, []byte("junk"), "archive", "put", "--data-dir", dataDir)
		assert.ErrorIs(t, err, codec.ErrDecode)
	})

	t.Run("list", func(t *testing.T) {
		out, err := run(t, nil, "archive", "list", "--data-dir", dataDir)
		require.NoError(t, err)
		assert.Equal(t, id+"\n", string(out))
	})

	t.Run("get raw", func(t *testing.T) {
		out, err := run(t, nil, "archive", "get", id, "--data-dir", dataDir)
		require.NoError(t, err)
		assert.Equal(t, wire, out)
	})

	t.Run("get decoded", func(t *testing.T) {
		out, err := run(t, nil, "archive", "get", id, "--decode", "--data-dir", dataDir)
		require.NoError(t, err)
		assert.Equal(t, "keep me", string(out))
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := run(t, nil, "archive", "get", "nope", "--data-dir", dataDir)
		assert.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := run(t, nil, "archive", "delete", id, "--data-dir", dataDir)
		require.NoError(t, err)

		out, err := run(t, nil, "archive", "list", "--data-dir", dataDir)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestServeCommand_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := execute(t, ctx, nil, "serve", "--port", "0", "--data-dir", filepath.Join(t.TempDir(), "data"))
	assert.NoError(t, err)
}
