// Package central talks to the Sophos identity provider and the
// region-agnostic Central management API. It covers the two calls a session
// needs before any resource work can happen: the client-credentials token
// exchange and the WhoAmI tenant/region resolution.
package central

import (
	"context"
	"time"
)

// Token is a bearer token with its absolute expiry instant.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Identity is the tenant/region routing context resolved for a credential
// pair. APIBase is the regional host all resource calls go through.
type Identity struct {
	TenantID   string
	DataRegion string
	APIBase    string
}

// AuthClient performs the identity-provider calls on behalf of the session
// manager.
type AuthClient interface {
	ExchangeToken(ctx context.Context, clientID, clientSecret string) (Token, error)
	WhoAmI(ctx context.Context, accessToken string) (Identity, error)
}
