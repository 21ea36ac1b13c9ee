package sites

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdc004/sophosURLmanager/internal/config"
	"github.com/mdc004/sophosURLmanager/internal/errors"
	"github.com/mdc004/sophosURLmanager/internal/metrics"
	"github.com/mdc004/sophosURLmanager/session"
)

// TokenSource yields an access context valid for immediate use. Satisfied by
// *session.Manager; the proxy asks for a fresh context on every call so token
// renewal is always respected.
type TokenSource interface {
	ValidToken(ctx context.Context) (session.AccessContext, error)
}

// Proxy translates local list/create/delete operations into calls against
// the remote paginated collection endpoint.
type Proxy struct {
	tokens     TokenSource
	httpClient *http.Client
	sitesPath  string
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// ProxyOption modifies a Proxy during construction.
type ProxyOption func(*Proxy)

// WithHTTPClient overrides the HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) ProxyOption {
	return func(p *Proxy) {
		p.httpClient = hc
	}
}

// WithMetrics attaches upstream-call instrumentation.
func WithMetrics(m *metrics.Metrics) ProxyOption {
	return func(p *Proxy) {
		p.metrics = m
	}
}

// NewProxy builds a proxy over the local-sites collection. The API base is
// part of each access context, never fixed at construction.
func NewProxy(tokens TokenSource, cfg config.CentralConfig, logger zerolog.Logger, options ...ProxyOption) (*Proxy, error) {
	if tokens == nil {
		return nil, fmt.Errorf("[NewProxy] token source is required")
	}

	p := &Proxy{
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.GetResourceTimeout()},
		sitesPath:  cfg.GetLocalSitesPath(),
		log:        logger.With().Str("component", "sites.Proxy").Logger(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// page is the decoded remote response for one page fetch.
type page struct {
	items      []LocalSite
	totalPages int
}

// List fetches the collection. With All set it folds pages 1..total into one
// accumulator, sequentially (page N+1's existence is only known from page N's
// metadata); the first failing page aborts the whole fetch and no partial
// result is returned.
func (p *Proxy) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	ac, err := p.tokens.ValidToken(ctx)
	if err != nil {
		return ListResult{}, err
	}
	if opts.Page < 1 {
		opts.Page = 1
	}

	if !opts.All {
		pg, err := p.fetchPage(ctx, ac, opts.Page, opts.PageTotal)
		if err != nil {
			return ListResult{}, err
		}
		return ListResult{Items: pg.items, TotalPages: pg.totalPages}, nil
	}

	first, err := p.fetchPage(ctx, ac, 1, true)
	if err != nil {
		return ListResult{}, err
	}
	items := first.items
	for pageNo := 2; pageNo <= first.totalPages; pageNo++ {
		pg, err := p.fetchPage(ctx, ac, pageNo, true)
		if err != nil {
			return ListResult{}, err
		}
		items = append(items, pg.items...)
	}
	return ListResult{Items: items, TotalPages: first.totalPages}, nil
}

// Create forwards a new site upstream. The only local validation is a
// non-empty URL; tag/category exclusivity and URL format are the remote
// system's call, and its rejection message is passed through verbatim.
func (p *Proxy) Create(ctx context.Context, site NewSite) (LocalSite, error) {
	if strings.TrimSpace(site.URL) == "" {
		return LocalSite{}, errors.Wrapf(errors.ErrValidation, "[Create] url is required")
	}

	ac, err := p.tokens.ValidToken(ctx)
	if err != nil {
		return LocalSite{}, err
	}

	payload, err := json.Marshal(site)
	if err != nil {
		return LocalSite{}, errors.Wrapf(err, "[Create] encoding payload")
	}

	status, body, err := p.do(ctx, ac, http.MethodPost, ac.APIBase+p.sitesPath, payload, "create")
	if err != nil {
		return LocalSite{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return LocalSite{}, classify(status, body)
	}

	var created LocalSite
	if err := json.Unmarshal(body, &created); err != nil {
		return LocalSite{}, errors.Wrapf(err, "[Create] decoding response")
	}
	p.log.Info().Str("id", created.ID).Msg("local site created")
	return created, nil
}

// Delete removes a site by its remote id. A remote 404 surfaces as
// ErrNotFound so "already gone" stays distinguishable from "deleted now".
func (p *Proxy) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.Wrapf(errors.ErrValidation, "[Delete] id is required")
	}

	ac, err := p.tokens.ValidToken(ctx)
	if err != nil {
		return err
	}

	target := ac.APIBase + p.sitesPath + "/" + url.PathEscape(id)
	status, body, err := p.do(ctx, ac, http.MethodDelete, target, nil, "delete")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return classify(status, body)
	}
	p.log.Info().Str("id", id).Msg("local site deleted")
	return nil
}

func (p *Proxy) fetchPage(ctx context.Context, ac session.AccessContext, pageNo int, pageTotal bool) (page, error) {
	target := ac.APIBase + p.sitesPath
	query := url.Values{}
	if pageTotal {
		query.Set("pageTotal", "true")
	}
	query.Set("page", strconv.Itoa(pageNo))
	target += "?" + query.Encode()

	status, body, err := p.do(ctx, ac, http.MethodGet, target, nil, "list_page")
	if err != nil {
		return page{}, err
	}
	if status != http.StatusOK {
		return page{}, classify(status, body)
	}

	var envelope struct {
		Items []LocalSite `json:"items"`
		Data  []LocalSite `json:"data"`
		Pages struct {
			Total *int `json:"total"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return page{}, errors.Wrapf(err, "[List] decoding page %d", pageNo)
	}

	items := envelope.Items
	if len(items) == 0 {
		items = envelope.Data
	}
	// When the total is not reported, the requested page is all we know of.
	totalPages := pageNo
	if envelope.Pages.Total != nil {
		totalPages = *envelope.Pages.Total
	}
	return page{items: items, totalPages: totalPages}, nil
}

// do issues one bounded remote call and hands back status and body; transport
// failures and timeouts come back as ErrNetwork.
func (p *Proxy) do(ctx context.Context, ac session.AccessContext, method, target string, payload []byte, operation string) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "[Proxy] building %s request", method)
	}
	req.Header.Set("Authorization", "Bearer "+ac.Token)
	req.Header.Set("X-Tenant-ID", ac.TenantID)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.observe(operation, "error", started)
		return 0, nil, errors.Upstream(errors.ErrNetwork, 0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.observe(operation, "error", started)
		return 0, nil, errors.Upstream(errors.ErrNetwork, 0, err.Error())
	}

	outcome := "ok"
	if resp.StatusCode >= 400 {
		outcome = "error"
	}
	p.observe(operation, outcome, started)
	return resp.StatusCode, body, nil
}

// classify maps a non-2xx remote response to the local error taxonomy,
// keeping the upstream status and message verbatim.
func classify(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	switch {
	case status == http.StatusNotFound:
		return errors.Upstream(errors.ErrNotFound, status, message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return errors.Upstream(errors.ErrValidation, status, message)
	default:
		return errors.Upstream(errors.ErrUpstream, status, message)
	}
}

func (p *Proxy) observe(operation, outcome string, started time.Time) {
	if p.metrics == nil {
		return
	}
	p.metrics.ObserveUpstream(operation, outcome, time.Since(started))
}
