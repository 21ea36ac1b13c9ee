package centralfake

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/mdc004/sophosURLmanager/central"
	"github.com/mdc004/sophosURLmanager/internal/errors"
)

var _ central.AuthClient = (*FakeAuthClient)(nil)

// FakeAuthClient is an in-memory AuthClient for tests. By default it accepts
// any credential pair and hands out sequentially numbered tokens; behavior
// can be overridden per call via the Fn hooks.
type FakeAuthClient struct {
	lock sync.Mutex

	ExchangeTokenFn func(ctx context.Context, clientID, clientSecret string) (central.Token, error)
	WhoAmIFn        func(ctx context.Context, accessToken string) (central.Identity, error)

	TokenLifetime time.Duration
	Identity      central.Identity

	exchangeCalls int
	whoAmICalls   int
	tokenSeq      int
}

func NewFakeAuthClient() *FakeAuthClient {
	return &FakeAuthClient{
		TokenLifetime: time.Hour,
		Identity: central.Identity{
			TenantID:   "tenant-1",
			DataRegion: "eu01",
			APIBase:    "https://api-eu01.central.sophos.com",
		},
	}
}

func (f *FakeAuthClient) ExchangeToken(ctx context.Context, clientID, clientSecret string) (central.Token, error) {
	f.lock.Lock()
	f.exchangeCalls++
	f.tokenSeq++
	seq := f.tokenSeq
	hook := f.ExchangeTokenFn
	lifetime := f.TokenLifetime
	f.lock.Unlock()

	if hook != nil {
		return hook(ctx, clientID, clientSecret)
	}
	if clientID == "" || clientSecret == "" {
		return central.Token{}, errors.Upstream(errors.ErrAuthentication, 401, "invalid_client")
	}
	return central.Token{
		AccessToken: tokenName(seq),
		ExpiresAt:   time.Now().Add(lifetime),
	}, nil
}

func (f *FakeAuthClient) WhoAmI(ctx context.Context, accessToken string) (central.Identity, error) {
	f.lock.Lock()
	f.whoAmICalls++
	hook := f.WhoAmIFn
	identity := f.Identity
	f.lock.Unlock()

	if hook != nil {
		return hook(ctx, accessToken)
	}
	return identity, nil
}

// ExchangeCalls reports how many token exchanges were attempted.
func (f *FakeAuthClient) ExchangeCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.exchangeCalls
}

// WhoAmICalls reports how many identity resolutions were attempted.
func (f *FakeAuthClient) WhoAmICalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.whoAmICalls
}

func tokenName(seq int) string {
	return "token-" + strconv.Itoa(seq)
}
