package codec

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind identifies the semantic purpose of a packet. The numeric values are
// the wire tags and must never be reassigned.
type Kind uint8

const (
	KindMessage  Kind = 0
	KindReaction Kind = 1
	KindTyping   Kind = 2
)

// ReactionKind is the reaction tag carried by reaction-flavored packets.
type ReactionKind uint8

const (
	ReactionNone    ReactionKind = 0
	ReactionLike    ReactionKind = 1
	ReactionDislike ReactionKind = 2
	ReactionHeart   ReactionKind = 3
	ReactionStar    ReactionKind = 4
)

var kindNames = [...]string{
	KindMessage:  "message",
	KindReaction: "reaction",
	KindTyping:   "typing",
}

var reactionNames = [...]string{
	ReactionNone:    "none",
	ReactionLike:    "like",
	ReactionDislike: "dislike",
	ReactionHeart:   "heart",
	ReactionStar:    "star",
}

// Valid reports whether k is part of the schema 1 catalog.
func (k Kind) Valid() bool { return int(k) < len(kindNames) }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Valid reports whether r is part of the schema 1 catalog.
func (r ReactionKind) Valid() bool { return int(r) < len(reactionNames) }

func (r ReactionKind) String() string {
	if !r.Valid() {
		return fmt.Sprintf("reaction(%d)", uint8(r))
	}
	return reactionNames[r]
}

// ParseKind maps a case-insensitive name to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, errors.Newf("codec: unknown packet kind %q", s)
}

// ParseReactionKind maps a case-insensitive name to a ReactionKind.
func ParseReactionKind(s string) (ReactionKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range reactionNames {
		if name == s {
			return ReactionKind(i), nil
		}
	}
	return 0, errors.Newf("codec: unknown reaction kind %q", s)
}

// Kinds returns the full packet kind catalog in tag order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// ReactionKinds returns the full reaction catalog in tag order.
func ReactionKinds() []ReactionKind {
	out := make([]ReactionKind, len(reactionNames))
	for i := range reactionNames {
		out[i] = ReactionKind(i)
	}
	return out
}
