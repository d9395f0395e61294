package model

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ObjectID is the store-native document identifier: 12 bytes, rendered as a
// 24-character lowercase hex string at every boundary. The leading 4 bytes
// carry the creation time in unix seconds, so ids sort roughly by insertion.
type ObjectID [12]byte

// NewObjectID returns a fresh identifier for the current time.
func NewObjectID() ObjectID {
	var id ObjectID
	binary.BigEndian.PutUint32(id[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(id[4:]); err != nil {
		panic(fmt.Sprintf("objectid entropy unavailable: %v", err))
	}
	return id
}

// ParseObjectID validates and decodes a caller-supplied id. Anything that is
// not exactly 24 hex characters fails with ErrInvalidArgument.
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID
	if len(s) != 24 {
		return id, fmt.Errorf("%w: id must be a 24-character hexadecimal string", ErrInvalidArgument)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("%w: id must be a 24-character hexadecimal string", ErrInvalidArgument)
	}
	copy(id[:], raw)
	return id, nil
}

// IsValidObjectID reports whether s has the 24-hex-character id shape.
func IsValidObjectID(s string) bool {
	_, err := ParseObjectID(s)
	return err == nil
}

func (id ObjectID) Hex() string {
	return hex.EncodeToString(id[:])
}

func (id ObjectID) String() string {
	return id.Hex()
}

func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

func (id ObjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

func (id *ObjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseObjectID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
