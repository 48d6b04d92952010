// Registry tracks authenticated sessions by user id and mints/verifies the
// tokens that carry that association to the client (spec.md §4.E).
//
// Grounded on internal/login.SessionManager's sync.Map-backed table
// (Store/Validate/Remove), generalized from a 4-field session-key compare
// to weak-handle lookup plus HMAC token verification.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/blazecoop/internal/auth"
)

// Registry maps authenticated user ids to their current session. A weak
// reference is approximated by storing the *Session directly but always
// reading it back through Lookup/Remove rather than holding it elsewhere:
// the registry is the single source of truth for "is this user still
// connected", matching spec.md §9's guidance to implement weak
// back-references as registry-lookup-by-id.
type Registry struct {
	sessions sync.Map // map[uint32]*Session
	signer   *auth.Signer
}

// NewRegistry builds a Registry using signer for token mint/verify.
func NewRegistry(signer *auth.Signer) *Registry {
	return &Registry{signer: signer}
}

// Add registers sess under userID, replacing any previous session for that
// user (duplicate login). The previous session is returned so the caller
// can notify it of the replacement; it is not closed automatically.
func (r *Registry) Add(userID uint32, sess *Session) (previous *Session, hadPrevious bool) {
	old, loaded := r.sessions.Swap(userID, sess)
	if loaded {
		return old.(*Session), true
	}
	return nil, false
}

// Lookup returns the session currently registered for userID, if any.
func (r *Registry) Lookup(userID uint32) (*Session, bool) {
	v, ok := r.sessions.Load(userID)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Remove drops sess's registry entry for its authenticated user, but only
// if sess is still the session on file (a later duplicate-login Add must
// not be undone by an earlier session's teardown).
func (r *Registry) Remove(sess *Session) {
	userID, ok := sess.UserID()
	if !ok {
		return
	}
	r.sessions.CompareAndDelete(userID, sess)
}

// MintToken issues a session token for userID, valid for ttl.
func (r *Registry) MintToken(userID uint32, ttl time.Duration) string {
	return r.signer.MintToken(userID, ttl)
}

// VerifyToken verifies a session token, returning the carried user id.
func (r *Registry) VerifyToken(tok string) (uint32, error) {
	return r.signer.VerifyToken(tok)
}

// MintAssocToken issues an association token over a fresh UUID.
func (r *Registry) MintAssocToken() (string, uuid.UUID) {
	return r.signer.MintAssocToken()
}

// VerifyAssocToken verifies an association token.
func (r *Registry) VerifyAssocToken(tok string) (uuid.UUID, error) {
	return r.signer.VerifyAssocToken(tok)
}
