// Package auth mints and verifies the two token shapes from spec.md §3/§6:
// a session token over a user-id payload and an association token over a
// UUID payload. Both share one process-wide HMAC-SHA-256 signing key,
// generated at first start and persisted (spec.md §6: "restarting without
// the key invalidates all outstanding tokens").
//
// Grounded on internal/login's SessionManager (process-wide shared secret,
// constant-time comparisons for anything security sensitive) adapted from
// an in-memory session-key table to a stateless signed-token scheme, since
// this protocol carries the token itself rather than a server-side lookup
// key.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	sessionPayloadSize = 12 // user-id (4) + expiry unix seconds (8)
	assocPayloadSize   = 16 // UUID
	signatureSize      = 32 // HMAC-SHA-256

	// DefaultTokenTTL is the default session-token lifetime (spec.md §3).
	DefaultTokenTTL = 30 * 24 * time.Hour
)

var b64 = base64.RawURLEncoding

// ErrTokenExpired is returned by Verify when the payload decoded and the
// signature matched, but the expiry timestamp has passed.
var ErrTokenExpired = errors.New("auth: token expired")

// ErrTokenInvalid is returned by Verify for any malformed token or
// signature mismatch: wrong part count, wrong payload size, bad base64, or
// a signature that does not verify.
var ErrTokenInvalid = errors.New("auth: token invalid")

// Signer mints and verifies tokens with one process-wide HMAC key.
type Signer struct {
	key []byte
	now func() time.Time
}

// NewSigner builds a Signer from a persisted or freshly generated key. Key
// generation and persistence is the caller's responsibility (LoadOrCreateKey
// handles the key file); key must be non-empty.
func NewSigner(key []byte) *Signer {
	if len(key) == 0 {
		panic("auth: signing key must not be empty")
	}
	return &Signer{key: key, now: time.Now}
}

func (s *Signer) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

func (s *Signer) encode(payload []byte) string {
	sig := s.sign(payload)
	return b64.EncodeToString(payload) + "." + b64.EncodeToString(sig)
}

// decode splits a token string into its payload and signature bytes, and
// verifies the signature in constant time. It does not interpret the
// payload or check expiry.
func (s *Signer) decode(tok string, wantPayloadSize int) ([]byte, error) {
	parts := strings.SplitN(tok, ".", 2)
	if len(parts) != 2 {
		return nil, ErrTokenInvalid
	}

	payload, err := b64.DecodeString(parts[0])
	if err != nil || len(payload) != wantPayloadSize {
		return nil, ErrTokenInvalid
	}

	sig, err := b64.DecodeString(parts[1])
	if err != nil || len(sig) != signatureSize {
		return nil, ErrTokenInvalid
	}

	want := s.sign(payload)
	if subtle.ConstantTimeCompare(sig, want) != 1 {
		return nil, ErrTokenInvalid
	}
	return payload, nil
}

// MintToken builds a session token for userID, expiring after ttl.
func (s *Signer) MintToken(userID uint32, ttl time.Duration) string {
	expiry := uint64(s.now().Add(ttl).Unix())

	payload := make([]byte, sessionPayloadSize)
	binary.BigEndian.PutUint32(payload[0:4], userID)
	binary.BigEndian.PutUint64(payload[4:12], expiry)

	return s.encode(payload)
}

// VerifyToken recomputes the signature over the decoded payload, then
// checks expiry. Returns ErrTokenInvalid for any structural or signature
// failure, ErrTokenExpired if the token is well-formed but stale.
func (s *Signer) VerifyToken(tok string) (userID uint32, err error) {
	payload, err := s.decode(tok, sessionPayloadSize)
	if err != nil {
		return 0, err
	}

	userID = binary.BigEndian.Uint32(payload[0:4])
	expiry := binary.BigEndian.Uint64(payload[4:12])
	if s.now().Unix() > int64(expiry) {
		return 0, ErrTokenExpired
	}
	return userID, nil
}

// MintAssocToken builds an association token over a fresh random UUID.
func (s *Signer) MintAssocToken() (string, uuid.UUID) {
	id := uuid.New()
	return s.encode(id[:]), id
}

// VerifyAssocToken recomputes the signature and returns the UUID payload.
// Association tokens carry no expiry field of their own.
func (s *Signer) VerifyAssocToken(tok string) (uuid.UUID, error) {
	payload, err := s.decode(tok, assocPayloadSize)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.FromBytes(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return id, nil
}
