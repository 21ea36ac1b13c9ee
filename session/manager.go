package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/mdc004/sophosURLmanager/central"
	"github.com/mdc004/sophosURLmanager/internal/errors"
)

// Manager is the only writer of the process-wide session. It exposes login
// and valid-token retrieval; everything else in the process reads derived
// values returned from these two operations.
type Manager struct {
	auth central.AuthClient

	lock    sync.Mutex
	current *authenticated

	renewals singleflight.Group
	nowTime  func() time.Time
	log      zerolog.Logger
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// NewManager initializes a Manager with its auth client dependency.
func NewManager(auth central.AuthClient, logger zerolog.Logger, options ...ManagerOption) (*Manager, error) {
	if auth == nil {
		return nil, fmt.Errorf("[NewManager] auth client is required")
	}

	m := &Manager{
		auth:    auth,
		nowTime: time.Now,
		log:     logger.With().Str("component", "session.Manager").Logger(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Login exchanges the credentials for a token, resolves the tenant/region
// context, and installs the new session. Any prior session is discarded
// unconditionally. On failure the session is left fully unauthenticated:
// a login either completes or leaves nothing behind.
func (m *Manager) Login(ctx context.Context, clientID, clientSecret string) (central.Identity, error) {
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)

	m.lock.Lock()
	m.current = nil
	m.lock.Unlock()

	if clientID == "" || clientSecret == "" {
		return central.Identity{}, errors.Wrapf(errors.ErrAuthentication, "[Login] client id and secret are required")
	}

	token, err := m.auth.ExchangeToken(ctx, clientID, clientSecret)
	if err != nil {
		m.log.Warn().Msg("login: token exchange failed")
		return central.Identity{}, errors.Wrapf(err, "[Login] token exchange")
	}

	identity, err := m.auth.WhoAmI(ctx, token.AccessToken)
	if err != nil {
		m.log.Warn().Msg("login: identity resolution failed")
		return central.Identity{}, errors.Wrapf(err, "[Login] identity resolution")
	}

	m.lock.Lock()
	m.current = &authenticated{
		clientID:     clientID,
		clientSecret: clientSecret,
		accessToken:  token.AccessToken,
		expiresAt:    token.ExpiresAt,
		identity:     identity,
	}
	m.lock.Unlock()

	m.log.Info().
		Str("tenantId", identity.TenantID).
		Str("dataRegion", identity.DataRegion).
		Msg("login succeeded")
	return identity, nil
}

// ValidToken returns an access context guaranteed usable for an immediate
// remote call. A cached token inside its validity window is returned without
// any network traffic; a token at or past the renewal skew is re-exchanged
// with the stored credentials. Concurrent callers in the renewal window share
// a single exchange and all observe the same renewed token.
func (m *Manager) ValidToken(ctx context.Context) (AccessContext, error) {
	m.lock.Lock()
	cur := m.current
	if cur == nil {
		m.lock.Unlock()
		return AccessContext{}, errors.ErrNotAuthenticated
	}
	if cur.freshAt(m.nowTime()) {
		ac := cur.accessContext()
		m.lock.Unlock()
		return ac, nil
	}
	clientID, clientSecret := cur.clientID, cur.clientSecret
	m.lock.Unlock()

	v, err, _ := m.renewals.Do("renew", func() (interface{}, error) {
		return m.renew(ctx, clientID, clientSecret)
	})
	if err != nil {
		return AccessContext{}, err
	}
	return v.(AccessContext), nil
}

// renew runs inside the singleflight; on failure the prior (expired) session
// is kept so the caller can retry or re-login, rather than being forcibly
// logged out by a transient fault.
func (m *Manager) renew(ctx context.Context, clientID, clientSecret string) (interface{}, error) {
	// A caller that queued behind a completed renewal must not trigger
	// another exchange.
	m.lock.Lock()
	if cur := m.current; cur != nil && cur.freshAt(m.nowTime()) {
		ac := cur.accessContext()
		m.lock.Unlock()
		return ac, nil
	}
	m.lock.Unlock()

	token, err := m.auth.ExchangeToken(ctx, clientID, clientSecret)
	if err != nil {
		m.log.Warn().Msg("token renewal failed")
		return nil, errors.Wrapf(err, "[ValidToken] renewal")
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	cur := m.current
	if cur == nil {
		// Session was reset by a concurrent login attempt; the renewed
		// token belongs to credentials that are no longer current.
		return nil, errors.ErrNotAuthenticated
	}
	if cur.clientID != clientID || cur.clientSecret != clientSecret {
		// A concurrent login replaced the session while the exchange was
		// in flight. The replacement's own token wins; the one minted from
		// the old credentials is discarded.
		return cur.accessContext(), nil
	}
	cur.accessToken = token.AccessToken
	cur.expiresAt = token.ExpiresAt
	m.log.Debug().Time("expiresAt", token.ExpiresAt).Msg("token renewed")
	return cur.accessContext(), nil
}
