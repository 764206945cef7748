package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/packetwire/pkg/checksum"
	"github.com/ssargent/packetwire/pkg/codec"
	"github.com/ssargent/packetwire/pkg/compress"
	"github.com/ssargent/packetwire/pkg/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	store := r.URL.Query().Get("store") == "true"
	if store && !s.requireArchive(w) {
		s.metrics.RecordPacketOperation("encode", false)
		return
	}

	var req EncodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)).Decode(&req); err != nil {
		s.metrics.RecordPacketOperation("encode", false)
		sendError(w, "Invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	p, err := s.buildPacket(req)
	if err != nil {
		s.metrics.RecordPacketOperation("encode", false)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	wire, err := s.codec.Encode(p)
	if err != nil {
		s.metrics.RecordPacketOperation("encode", false)
		status := http.StatusInternalServerError
		if errors.Is(err, codec.ErrPayloadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		sendError(w, err.Error(), status)
		return
	}
	s.metrics.RecordPacketOperation("encode", true)
	s.metrics.ObserveCompression(len(req.Payload), p.CompressedSize())

	resp := EncodeResponse{
		Wire:           wire,
		CRC:            p.CRC(),
		Compression:    p.Compression().Name(),
		RawSize:        len(req.Payload),
		CompressedSize: p.CompressedSize(),
	}

	if store {
		id, err := s.archive.PutRaw(wire)
		s.metrics.RecordArchiveOperation("put", err == nil)
		if err != nil {
			s.logger.Error().Err(err).Msg("archive put failed")
			sendError(w, "Failed to archive packet", http.StatusInternalServerError)
			return
		}
		resp.ID = id.String()
	}

	sendSuccess(w, resp)
}

func (s *Server) buildPacket(req EncodeRequest) (*codec.Packet, error) {
	kind, err := codec.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}

	name := req.Compression
	if name == "" {
		name = s.config.Compression
	}
	if name == "" {
		name = "snappy"
	}
	comp, err := s.codec.Registry().ByName(name)
	if err != nil {
		return nil, err
	}

	opts := []codec.PacketOption{codec.WithCompression(comp)}
	if req.ReactionKind != nil {
		reaction, err := codec.ParseReactionKind(*req.ReactionKind)
		if err != nil {
			return nil, err
		}
		opts = append(opts, codec.WithReaction(reaction))
	}

	return codec.NewPacket(kind, req.Payload, opts...)
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	wire, ok := s.readWire(w, r)
	if !ok {
		s.metrics.RecordPacketOperation("decode", false)
		return
	}

	verify := s.config.VerifyOnDecode || r.URL.Query().Get("verify") == "true"

	var (
		p   *codec.Packet
		err error
	)
	if verify {
		p, err = s.codec.DecodeVerified(wire)
	} else {
		p, err = s.codec.Decode(wire)
	}
	if err != nil {
		s.metrics.RecordPacketOperation("decode", false)
		s.sendDecodeError(w, err)
		return
	}

	resp, err := NewPacketResponse(p)
	if err != nil {
		s.metrics.RecordPacketOperation("decode", false)
		s.sendDecodeError(w, err)
		return
	}

	s.metrics.RecordPacketOperation("decode", true)
	sendSuccess(w, resp)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	wire, ok := s.readWire(w, r)
	if !ok {
		s.metrics.RecordPacketOperation("verify", false)
		return
	}

	p, err := s.codec.Decode(wire)
	if err != nil {
		s.metrics.RecordPacketOperation("verify", false)
		s.sendDecodeError(w, err)
		return
	}

	s.metrics.RecordPacketOperation("verify", true)
	sendSuccess(w, VerifyResponse{
		Valid:       p.Verify(),
		StoredCRC:   p.CRC(),
		ComputedCRC: checksum.Sum(p.CompressedPayload()),
	})
}

func (s *Server) handleArchivePut(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	wire, ok := s.readWire(w, r)
	if !ok {
		return
	}

	id, err := s.archive.PutRaw(wire)
	s.metrics.RecordArchiveOperation("put", err == nil)
	if err != nil {
		if errors.Is(err, codec.ErrDecode) {
			s.sendDecodeError(w, err)
			return
		}
		s.logger.Error().Err(err).Msg("archive put failed")
		sendError(w, "Failed to archive packet", http.StatusInternalServerError)
		return
	}

	sendSuccess(w, ArchiveResponse{ID: id.String()})
}

func (s *Server) handleArchiveGet(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	wire, err := s.archive.Raw(id)
	s.metrics.RecordArchiveOperation("get", err == nil)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			sendError(w, "Packet not found", http.StatusNotFound)
			return
		}
		s.logger.Error().Err(err).Str("id", id.String()).Msg("archive get failed")
		sendError(w, "Failed to read packet", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(wire)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wire)
}

func (s *Server) handleArchiveDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := s.archive.Delete(id)
	s.metrics.RecordArchiveOperation("delete", err == nil)
	if err != nil {
		s.logger.Error().Err(err).Str("id", id.String()).Msg("archive delete failed")
		sendError(w, "Failed to delete packet", http.StatusInternalServerError)
		return
	}

	sendSuccess(w, map[string]string{"message": "Packet deleted successfully"})
}

func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			sendError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	ids, err := s.archive.List(limit)
	s.metrics.RecordArchiveOperation("list", err == nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("archive list failed")
		sendError(w, "Failed to list packets", http.StatusInternalServerError)
		return
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	sendSuccess(w, out)
}

// readWire reads the request body as a wire buffer, answering the request
// itself when it cannot.
func (s *Server) readWire(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	wire, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return wire, true
}

func (s *Server) sendDecodeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, codec.ErrDecode):
		s.metrics.RecordDecodeFailure("malformed")
		sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, codec.ErrChecksumMismatch):
		s.metrics.RecordDecodeFailure("checksum")
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, compress.ErrDecompression):
		s.metrics.RecordDecodeFailure("payload")
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.logger.Error().Err(err).Msg("decode failed")
		sendError(w, "Failed to decode packet", http.StatusInternalServerError)
	}
}

func (s *Server) requireArchive(w http.ResponseWriter) bool {
	if s.archive == nil {
		sendError(w, "Archive is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid packet id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}
