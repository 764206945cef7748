// Package storage persists encoded packets in a pebble-backed archive keyed by
// time-ordered KSUIDs.
package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/packetwire/pkg/codec"
)

var keyPrefix = []byte("packet/")

// ErrNotFound is returned when no packet is stored under an id.
var ErrNotFound = errors.New("storage: packet not found")

// Options configures an Archive.
type Options struct {
	// Sync makes every write durable before it returns.
	Sync bool
}

// Archive stores encoded packet buffers. Writes are validated with the
// archive's PacketCodec so only decodable buffers are kept.
type Archive struct {
	db    *pebble.DB
	codec *codec.PacketCodec
	write *pebble.WriteOptions
}

// Open opens or creates an archive in dir.
func Open(dir string, pc *codec.PacketCodec, opts Options) (*Archive, error) {
	if pc == nil {
		pc = codec.NewPacketCodec()
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "storage: open %s", dir)
	}

	write := pebble.NoSync
	if opts.Sync {
		write = pebble.Sync
	}
	return &Archive{db: db, codec: pc, write: write}, nil
}

// Store encodes p and saves it under a new id.
func (a *Archive) Store(p *codec.Packet) (ksuid.KSUID, error) {
	wire, err := a.codec.Encode(p)
	if err != nil {
		return ksuid.Nil, err
	}
	return a.put(wire)
}

// PutRaw saves an already encoded buffer after checking it decodes.
func (a *Archive) PutRaw(wire []byte) (ksuid.KSUID, error) {
	if _, err := a.codec.Decode(wire); err != nil {
		return ksuid.Nil, err
	}
	return a.put(wire)
}

func (a *Archive) put(wire []byte) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := a.db.Set(key(id), wire, a.write); err != nil {
		return ksuid.Nil, errors.Wrap(err, "storage: put")
	}
	return id, nil
}

// Raw returns the stored wire bytes for id.
func (a *Archive) Raw(id ksuid.KSUID) ([]byte, error) {
	data, closer, err := a.db.Get(key(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "id %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "storage: get")
	}
	defer closer.Close()

	// data is only valid until closer.Close
	return append([]byte(nil), data...), nil
}

// Load decodes the packet stored under id.
func (a *Archive) Load(id ksuid.KSUID) (*codec.Packet, error) {
	wire, err := a.Raw(id)
	if err != nil {
		return nil, err
	}
	return a.codec.Decode(wire)
}

// Delete removes id. Deleting a missing id is not an error.
func (a *Archive) Delete(id ksuid.KSUID) error {
	if err := a.db.Delete(key(id), a.write); err != nil {
		return errors.Wrap(err, "storage: delete")
	}
	return nil
}

// List returns up to limit ids in creation order. A non-positive limit
// returns every id.
func (a *Archive) List(limit int) ([]ksuid.KSUID, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: keyPrefix,
		UpperBound: prefixEnd(keyPrefix),
	})
	if err != nil {
		return nil, errors.Wrap(err, "storage: list")
	}

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key()[len(keyPrefix):])
		if err != nil {
			_ = iter.Close()
			return nil, errors.Wrapf(err, "storage: bad key %x", iter.Key())
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "storage: list")
	}
	return ids, nil
}

// Close flushes and closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

func key(id ksuid.KSUID) []byte {
	k := make([]byte, 0, len(keyPrefix)+len(id))
	k = append(k, keyPrefix...)
	return append(k, id.Bytes()...)
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	end[len(end)-1]++
	return end
}
