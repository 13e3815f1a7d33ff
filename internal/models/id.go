package models

import (
	"bytes"
	"fmt"

	"github.com/desertthunder/lipl/internal/shared"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// maxBase58Len is the longest base58 encoding of 16 bytes.
const maxBase58Len = 22

// ID identifies a lyric or a playlist. The zero value means "unassigned".
type ID struct {
	uuid uuid.UUID
}

// NewID returns a fresh random (v4) identifier.
func NewID() ID {
	return ID{uuid: uuid.New()}
}

// IDFromUUID wraps an existing UUID.
func IDFromUUID(u uuid.UUID) ID {
	return ID{uuid: u}
}

// ParseID decodes the canonical base58 form produced by [ID.String].
// The hyphenated RFC 4122 form is accepted as well.
func ParseID(text string) (ID, error) {
	if text == "" {
		return ID{}, fmt.Errorf("%w: empty", shared.ErrInvalidID)
	}

	if len(text) <= maxBase58Len {
		decoded, err := base58.Decode(text)
		if err == nil && len(decoded) == len(uuid.UUID{}) {
			u, err := uuid.FromBytes(decoded)
			if err == nil {
				return ID{uuid: u}, nil
			}
		}
	}

	u, err := uuid.Parse(text)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q", shared.ErrInvalidID, text)
	}
	return ID{uuid: u}, nil
}

// String returns the canonical base58 encoding of the 16 identifier bytes.
func (id ID) String() string {
	return base58.Encode(id.uuid[:])
}

// UUID returns the underlying UUID.
func (id ID) UUID() uuid.UUID {
	return id.uuid
}

// IsZero reports whether the identifier is unassigned.
func (id ID) IsZero() bool {
	return id.uuid == uuid.Nil
}

// Compare orders identifiers by their bytes; it returns -1, 0 or +1.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id.uuid[:], other.uuid[:])
}

// Equal reports whether both identifiers are the same.
func (id ID) Equal(other ID) bool {
	return id == other
}

// MarshalText implements [encoding.TextMarshaler].
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
