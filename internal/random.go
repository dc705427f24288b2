package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// SessionID is a 128-bit random opaque session identifier.
type SessionID [16]byte

// NewSessionID draws a fresh identifier from crypto/rand.
func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

// String encodes the identifier as compact unpadded base64url. This is the
// wire form presented as the opaque session credential.
func (s SessionID) String() string {
	return base64.RawURLEncoding.EncodeToString(s[:])
}

// ParseSessionID decodes the wire form back into a SessionID.
func ParseSessionID(raw string) (SessionID, error) {
	var sid SessionID

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return sid, err
	}
	if len(decoded) != len(sid) {
		return sid, errors.New("invalid session id size")
	}

	copy(sid[:], decoded)
	return sid, nil
}
