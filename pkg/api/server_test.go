package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/packetwire/pkg/codec"
	"github.com/ssargent/packetwire/pkg/logging"
	"github.com/ssargent/packetwire/pkg/storage"
)

func setupTestServer(t *testing.T, config ServerConfig) (*Server, http.Handler) {
	t.Helper()

	pc := codec.NewPacketCodec()
	archive, err := storage.Open(t.TempDir(), pc, storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = archive.Close() })

	server := NewServer(pc, archive, config, NewMetrics(), logging.Nop())
	return server, server.Routes()
}

func doRequest(t *testing.T, h http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of an APIResponse into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) APIResponse {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	if out != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return APIResponse{Success: envelope.Success, Error: envelope.Error}
}

func encodeViaAPI(t *testing.T, h http.Handler, req EncodeRequest, query string) EncodeResponse {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := doRequest(t, h, "POST", "/api/v1/packets/encode"+query, body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp EncodeResponse
	envelope := decodeData(t, w, &resp)
	require.True(t, envelope.Success)
	return resp
}

func TestServer_Health(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	w := doRequest(t, h, "GET", "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var data map[string]string
	envelope := decodeData(t, w, &data)
	assert.True(t, envelope.Success)
	assert.Equal(t, "healthy", data["status"])
}

func TestServer_EncodeDecodeRoundTrip(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	like := "like"
	testCases := []struct {
		name string
		req  EncodeRequest
	}{
		{name: "message", req: EncodeRequest{Kind: "message", Payload: []byte("hello")}},
		{name: "empty message", req: EncodeRequest{Kind: "message", Payload: []byte{}}},
		{name: "reaction", req: EncodeRequest{Kind: "reaction", ReactionKind: &like, Payload: []byte("hello world hello world")}},
		{name: "typing zstd", req: EncodeRequest{Kind: "typing", Payload: []byte("..."), Compression: "zstd"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc := encodeViaAPI(t, h, tc.req, "")
			assert.NotEmpty(t, enc.Wire)
			assert.Equal(t, len(tc.req.Payload), enc.RawSize)

			w := doRequest(t, h, "POST", "/api/v1/packets/decode", enc.Wire, map[string]string{"Content-Type": "application/octet-stream"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var pkt PacketResponse
			envelope := decodeData(t, w, &pkt)
			require.True(t, envelope.Success)

			assert.Equal(t, tc.req.Kind, pkt.Kind)
			assert.Equal(t, string(tc.req.Payload), string(pkt.Payload))
			assert.Equal(t, enc.CRC, pkt.CRC)
			assert.False(t, pkt.Serialized)
			assert.True(t, pkt.Valid)
			if tc.req.ReactionKind != nil {
				require.NotNil(t, pkt.ReactionKind)
				assert.Equal(t, *tc.req.ReactionKind, *pkt.ReactionKind)
			} else {
				assert.Nil(t, pkt.ReactionKind)
			}
			if tc.req.Compression != "" {
				assert.Equal(t, tc.req.Compression, pkt.Compression)
			}
		})
	}
}

func TestServer_EncodeBadRequests(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	testCases := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: "{not json"},
		{name: "unknown kind", body: `{"kind":"presence","payload":""}`},
		{name: "unknown reaction", body: `{"kind":"reaction","reaction_kind":"laugh","payload":""}`},
		{name: "unknown compression", body: `{"kind":"message","payload":"","compression":"lz4"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, h, "POST", "/api/v1/packets/encode", []byte(tc.body), nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			envelope := decodeData(t, w, nil)
			assert.False(t, envelope.Success)
			assert.NotEmpty(t, envelope.Error)
		})
	}
}

func TestServer_DecodeMalformed(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	w := doRequest(t, h, "POST", "/api/v1/packets/decode", []byte{0x02}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeData(t, w, nil)
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Error, "minimum packet size")
}

func TestServer_DecodeChecksum(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	enc := encodeViaAPI(t, h, EncodeRequest{Kind: "message", Payload: []byte("checked")}, "")
	wire := append([]byte(nil), enc.Wire...)
	wire[len(wire)-2] ^= 0x01

	t.Run("decode accepts flipped crc", func(t *testing.T) {
		w := doRequest(t, h, "POST", "/api/v1/packets/decode", wire, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var pkt PacketResponse
		decodeData(t, w, &pkt)
		assert.False(t, pkt.Valid)
		assert.Equal(t, "checked", string(pkt.Payload))
	})

	t.Run("verify=true rejects flipped crc", func(t *testing.T) {
		w := doRequest(t, h, "POST", "/api/v1/packets/decode?verify=true", wire, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("verify endpoint reports mismatch", func(t *testing.T) {
		w := doRequest(t, h, "POST", "/api/v1/packets/verify", wire, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var v VerifyResponse
		decodeData(t, w, &v)
		assert.False(t, v.Valid)
		assert.NotEqual(t, v.StoredCRC, v.ComputedCRC)
		assert.Equal(t, enc.CRC, v.ComputedCRC)
	})

	t.Run("verify endpoint accepts original", func(t *testing.T) {
		w := doRequest(t, h, "POST", "/api/v1/packets/verify", enc.Wire, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var v VerifyResponse
		decodeData(t, w, &v)
		assert.True(t, v.Valid)
	})
}

func TestServer_VerifyOnDecodeConfig(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{VerifyOnDecode: true})

	enc := encodeViaAPI(t, h, EncodeRequest{Kind: "message", Payload: []byte("strict")}, "")
	wire := append([]byte(nil), enc.Wire...)
	wire[len(wire)-2] ^= 0x01

	w := doRequest(t, h, "POST", "/api/v1/packets/decode", wire, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestServer_BodyLimit(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{MaxBodyBytes: 16})

	w := doRequest(t, h, "POST", "/api/v1/packets/decode", bytes.Repeat([]byte{0x01}, 64), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_Archive(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	enc := encodeViaAPI(t, h, EncodeRequest{Kind: "message", Payload: []byte("archived")}, "?store=true")
	require.NotEmpty(t, enc.ID)

	t.Run("get stored packet", func(t *testing.T) {
		w := doRequest(t, h, "GET", "/api/v1/archive/"+enc.ID, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))

		body, err := io.ReadAll(w.Body)
		require.NoError(t, err)
		assert.Equal(t, enc.Wire, body)
	})

	t.Run("put raw wire", func(t *testing.T) {
		w := doRequest(t, h, "POST", "/api/v1/archive", enc.Wire, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ArchiveResponse
		decodeData(t, w, &resp)
		assert.NotEmpty(t, resp.ID)
	})

	t.Run("put malformed wire", func(t *testing.T) {
		w := doRequest(t, h, "POST", "/api/v1/archive", []byte("junk"), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := doRequest(t, h, "GET", "/api/v1/archive", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var ids []string
		decodeData(t, w, &ids)
		assert.Len(t, ids, 2)
		assert.Contains(t, ids, enc.ID)

		w = doRequest(t, h, "GET", "/api/v1/archive?limit=1", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &ids)
		assert.Len(t, ids, 1)

		w = doRequest(t, h, "GET", "/api/v1/archive?limit=abc", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := doRequest(t, h, "GET", "/api/v1/archive/not-a-ksuid", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := doRequest(t, h, "DELETE", "/api/v1/archive/"+enc.ID, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(t, h, "GET", "/api/v1/archive/"+enc.ID, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_NoArchive(t *testing.T) {
	server := NewServer(nil, nil, ServerConfig{}, nil, logging.Nop())
	h := server.Routes()

	w := doRequest(t, h, "GET", "/api/v1/archive", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	body, err := json.Marshal(EncodeRequest{Kind: "message", Payload: []byte("x")})
	require.NoError(t, err)
	w = doRequest(t, h, "POST", "/api/v1/packets/encode?store=true", body, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(t, h, "GET", "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	metrics := w.Body.String()
	assert.Contains(t, metrics, `packetwire_packet_operations_total{operation="encode",status="error"} 1`)
	assert.NotContains(t, metrics, `packetwire_packet_operations_total{operation="encode",status="success"}`)
	assert.Contains(t, metrics, "packetwire_compression_ratio_count 0")
}

func TestServer_Metrics(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{})

	encodeViaAPI(t, h, EncodeRequest{Kind: "message", Payload: bytes.Repeat([]byte("metrics "), 32)}, "")
	doRequest(t, h, "POST", "/api/v1/packets/decode", []byte{0x02}, nil)

	w := doRequest(t, h, "GET", "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `packetwire_packet_operations_total{operation="encode",status="success"} 1`), body)
	assert.Contains(t, body, `packetwire_decode_failures_total{class="malformed"} 1`)
	assert.Contains(t, body, "packetwire_compression_ratio_bucket")
	assert.Contains(t, body, "packetwire_http_requests_total")
}

func TestServer_DefaultCompression(t *testing.T) {
	_, h := setupTestServer(t, ServerConfig{Compression: "zstd"})

	enc := encodeViaAPI(t, h, EncodeRequest{Kind: "message", Payload: []byte("default zstd")}, "")
	assert.Equal(t, "zstd", enc.Compression)
}
