package api

import (
	"github.com/segmentio/ksuid"

	"github.com/ssargent/packetwire/pkg/codec"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// EncodeRequest asks the server to build and encode a packet. Payload is
// base64 in JSON.
type EncodeRequest struct {
	Kind         string  `json:"kind"`
	ReactionKind *string `json:"reaction_kind,omitempty"`
	Payload      []byte  `json:"payload"`
	Compression  string  `json:"compression,omitempty"`
}

// EncodeResponse carries the wire form of a freshly built packet
type EncodeResponse struct {
	ID             string `json:"id,omitempty"`
	Wire           []byte `json:"wire"`
	CRC            uint32 `json:"crc"`
	Compression    string `json:"compression"`
	RawSize        int    `json:"raw_size"`
	CompressedSize int    `json:"compressed_size"`
}

// PacketResponse describes a decoded packet
type PacketResponse struct {
	Kind         string  `json:"kind"`
	ReactionKind *string `json:"reaction_kind,omitempty"`
	Payload      []byte  `json:"payload"`
	CRC          uint32  `json:"crc"`
	Compression  string  `json:"compression"`
	Serialized   bool    `json:"serialized"`
	Valid        bool    `json:"valid"`
}

// NewPacketResponse describes p, decompressing its payload.
func NewPacketResponse(p *codec.Packet) (PacketResponse, error) {
	payload, err := p.Payload()
	if err != nil {
		return PacketResponse{}, err
	}
	resp := PacketResponse{
		Kind:        p.Kind().String(),
		Payload:     payload,
		CRC:         p.CRC(),
		Compression: p.Compression().Name(),
		Serialized:  p.Serialized(),
		Valid:       p.Verify(),
	}
	if r, ok := p.ReactionKind(); ok {
		name := r.String()
		resp.ReactionKind = &name
	}
	return resp, nil
}

// VerifyResponse reports the checksum comparison for a wire buffer
type VerifyResponse struct {
	Valid       bool   `json:"valid"`
	StoredCRC   uint32 `json:"stored_crc"`
	ComputedCRC uint32 `json:"computed_crc"`
}

// ArchiveResponse identifies an archived packet
type ArchiveResponse struct {
	ID string `json:"id"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind           string
	Port           int
	APIKey         string // empty disables authentication
	Compression    string // default codec name for encode requests
	VerifyOnDecode bool   // enforce crc on every decode request
	MaxBodyBytes   int64
}

// PacketArchive defines the archive operations the server exposes
type PacketArchive interface {
	PutRaw(wire []byte) (ksuid.KSUID, error)
	Raw(id ksuid.KSUID) ([]byte, error)
	Delete(id ksuid.KSUID) error
	List(limit int) ([]ksuid.KSUID, error)
}
