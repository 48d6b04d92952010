package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/udisondev/blazecoop/internal/model"
	"github.com/udisondev/blazecoop/internal/router"
	"github.com/udisondev/blazecoop/internal/tdf"
)

// Login associates the session with the user id carried by an already-minted
// session token (spec.md §4.E): the HTTP login/create-user exchange that
// issues the token is out of scope for the binary protocol (spec.md §1
// Non-goals exclude the HTTP transport itself), so Authentication/Login's
// only job on the wire is "redeem this token for an authenticated session",
// grounded on the AuthRequest{token: AUTH}/AuthResponse shape of the Blaze
// auth exchange this protocol implements.
func (d Deps) Login(ctx context.Context, sess router.Session, body []byte) ([]byte, error) {
	live, err := liveSession(sess)
	if err != nil {
		return nil, err
	}

	dec := tdf.NewDecoder(body)
	token, err := dec.String("AUTH")
	if err != nil {
		return nil, &router.DecodingError{Err: err}
	}

	userID, err := d.Sessions.VerifyToken(token)
	if err != nil {
		return nil, errAuthRequired
	}

	user, err := d.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, wrapSystem(fmt.Errorf("loading user %d: %w", userID, err))
	}

	if old, hadPrevious := d.Sessions.Add(userID, live); hadPrevious && old != live {
		old.Close()
	}
	live.SetUser(userID)

	return encodeAuthResponse(*user), nil
}

// encodeAuthResponse builds the SESS group the retail client expects back
// from a successful login, grounded on the Blaze AuthResponse shape (the
// same BUID/MAIL/PDTL fields, populated from the backing user row instead
// of a stub).
func encodeAuthResponse(user model.User) []byte {
	enc := tdf.NewEncoder(128)

	enc.BeginGroup("SESS")
	enc.WriteU8("7CON", 0)
	enc.WriteU32("BUID", user.ID)
	enc.WriteU8("FRST", 0)
	enc.WriteString("KEY", "0")
	enc.WriteU64("LLOG", uint64(time.Now().Unix()))
	enc.WriteEmptyString("MAIL")

	enc.BeginGroup("PDTL")
	enc.WriteString("DSNM", user.Username)
	enc.WriteU32("LAST", 0)
	enc.WriteU32("PID ", user.ID)
	enc.WriteU8("PLAT", 4)
	enc.WriteU8("STAS", 0)
	enc.WriteU32("XREF", user.ID)
	enc.EndGroup()

	enc.WriteU32("UID ", user.ID)
	enc.EndGroup()

	enc.WriteU8("SPAM", 0)
	enc.WriteU8("UNDR", 0)

	return enc.Bytes()
}
