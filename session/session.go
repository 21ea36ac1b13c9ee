// Package session owns the single in-process credential session: it trades a
// client id/secret for a bearer token, resolves the tenant's routing context
// once per login, and renews the token before it expires so callers never
// handle auth state themselves.
package session

import (
	"time"

	"github.com/mdc004/sophosURLmanager/central"
)

// renewalSkew is the lead time before expiry at which a token is treated as
// due for renewal, so it cannot expire mid-request.
const renewalSkew = 60 * time.Second

// authenticated is the populated arm of the session variant. A session is
// either nil (never logged in, or last login failed) or carries every field
// below; there is no partially authenticated state.
type authenticated struct {
	clientID     string
	clientSecret string
	accessToken  string
	expiresAt    time.Time
	identity     central.Identity
}

// AccessContext is the value a resource call needs: a token valid for
// immediate use plus the tenant routing context. It is a copy; the session's
// own state is never handed out by reference.
type AccessContext struct {
	Token    string
	TenantID string
	APIBase  string
}

func (a *authenticated) accessContext() AccessContext {
	return AccessContext{
		Token:    a.accessToken,
		TenantID: a.identity.TenantID,
		APIBase:  a.identity.APIBase,
	}
}

func (a *authenticated) freshAt(now time.Time) bool {
	return now.Before(a.expiresAt.Add(-renewalSkew))
}
