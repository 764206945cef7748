// Package codec provides the Packet entity and its binary wire format.
//
// A Packet carries a kind tag, an optional reaction tag and a payload. The
// payload is compressed when the packet is built, and a CRC-32 is computed
// once over the compressed bytes. PacketCodec turns packets into flat byte
// buffers and back.
//
// # Packet Format
//
// Version 1 packets are serialized as:
//
//	[Version(1)][Compression(1)][Kind(1)][ReactionFlag(1)][Reaction(1)?][PayloadLen(4)][Payload][CRC32(4)][Serialized(1)]
//
// Fields:
//   - Version: schema version, always 0x01
//   - Compression: codec id of the payload frame (1 = snappy, 2 = zstd)
//   - Kind: packet kind tag (0 = message, 1 = reaction, 2 = typing)
//   - ReactionFlag: 0 when no reaction tag follows, 1 when one does
//   - Reaction: reaction tag (0 = none, 1 = like, 2 = dislike, 3 = heart, 4 = star)
//   - PayloadLen: 32-bit unsigned compressed payload length (little-endian)
//   - Payload: compressed payload frame
//   - CRC32: IEEE checksum of the compressed payload (little-endian)
//   - Serialized: always written as 1
//
// The smallest structurally valid packet is MinPacketSize (13) bytes.
//
// # Integrity
//
// The checksum is never recomputed after construction, and Decode does not
// compare it. Hosts that want enforcement call Packet.Verify or use
// PacketCodec.DecodeVerified:
//
//	pc := codec.NewPacketCodec()
//
//	p, err := codec.NewPacket(codec.KindReaction, []byte("hi"), codec.WithReaction(codec.ReactionLike))
//	if err != nil {
//	    return err
//	}
//
//	wire, err := pc.Encode(p)
//	if err != nil {
//	    return err
//	}
//
//	received, err := pc.DecodeVerified(wire)
//	if err != nil {
//	    return err // malformed or corrupted
//	}
//
// # Error Handling
//
// Malformed buffers produce a *DecodeError that matches ErrDecode. Payload
// codec failures match compress.ErrCompression or compress.ErrDecompression.
// No function in this package panics on bad input.
//
// # Compatibility
//
// Only schema version 1 exists. There is no cross-version interoperability;
// the leading version byte lets a decoder report a mismatch instead of
// misreading fields.
package codec
