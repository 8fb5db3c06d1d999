package models

import (
	"fmt"
	"time"
)

// Visitor key prefixes. A visitor key is either "user:<id>" for an
// authenticated visitor or "guest:<token>" for an anonymous one.
const (
	VisitorKeyUserPrefix  = "user:"
	VisitorKeyGuestPrefix = "guest:"
)

// UserVisitorKey builds the visitor key for an authenticated user.
func UserVisitorKey(userID int64) string {
	return fmt.Sprintf("%s%d", VisitorKeyUserPrefix, userID)
}

// GuestVisitorKey builds the visitor key for an anonymous guest token.
func GuestVisitorKey(token string) string {
	return VisitorKeyGuestPrefix + token
}

// Presence is one logical row per visitor in the active_sessions table.
// It is only ever created or refreshed by the upsert path and removed by
// the reclaimer; there is no explicit "session end".
type Presence struct {
	VisitorKey   string    `db:"visitor_key" json:"visitor_key"`
	UserID       int64     `db:"user_id" json:"user_id"`
	SessionToken string    `db:"session_token" json:"session_token"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
}

// IsAuthenticated reports whether the row belongs to a logged-in user.
func (p *Presence) IsAuthenticated() bool {
	return p.UserID > 0
}

// ActiveAt reports whether the row counts as active at the given instant:
// last_activity >= now - threshold, boundary inclusive.
func (p *Presence) ActiveAt(now time.Time, threshold time.Duration) bool {
	return !p.LastActivity.Before(now.Add(-threshold))
}

// IdentityContext is the visitor identity resolved once at the request
// boundary and passed into the recorder. Exactly one of UserID/GuestToken
// is meaningful: UserID > 0 wins, otherwise GuestToken identifies a guest.
type IdentityContext struct {
	UserID     int64
	GuestToken string
}

// Authenticated reports whether the identity carries a logged-in user.
func (ic IdentityContext) Authenticated() bool {
	return ic.UserID > 0
}

// VisitorKey derives the stable presence key for this identity.
func (ic IdentityContext) VisitorKey() string {
	if ic.Authenticated() {
		return UserVisitorKey(ic.UserID)
	}
	return GuestVisitorKey(ic.GuestToken)
}
