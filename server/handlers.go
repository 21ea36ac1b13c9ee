package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mdc004/sophosURLmanager/internal/errors"
	"github.com/mdc004/sophosURLmanager/sites"
)

const contentTypeJSON = "application/json; charset=utf-8"

type loginRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type loginResponse struct {
	OK         bool   `json:"ok"`
	TenantID   string `json:"tenantId"`
	DataRegion string `json:"dataRegion"`
	APIBase    string `json:"apiBase"`
}

type listResponse struct {
	OK    bool              `json:"ok"`
	Items []sites.LocalSite `json:"items"`
	Pages *pagesInfo        `json:"pages,omitempty"`
}

type pagesInfo struct {
	Total int `json:"total"`
}

type createResponse struct {
	OK   bool            `json:"ok"`
	Item sites.LocalSite `json:"item"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	OK        bool   `json:"ok"`
	ErrorKind string `json:"errorKind"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error"`
}

// LoginHandler exchanges the submitted credentials for a session and returns
// the resolved tenant routing context.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "validation", 0, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.ClientID == "" || req.ClientSecret == "" {
			writeJSONError(w, "validation", 0, "client_id and client_secret are required", http.StatusBadRequest)
			return
		}

		identity, err := s.session.Login(r.Context(), req.ClientID, req.ClientSecret)
		if err != nil {
			s.writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			OK:         true,
			TenantID:   identity.TenantID,
			DataRegion: identity.DataRegion,
			APIBase:    identity.APIBase,
		})
	}
}

// ListSitesHandler proxies the collection listing. By default every page is
// aggregated; all=false selects a single page.
func (s *Server) ListSitesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := sites.DefaultListOptions()
		query := r.URL.Query()
		if query.Get("all") == "false" {
			opts.All = false
		}
		if pageStr := query.Get("page"); pageStr != "" {
			if page, err := strconv.Atoi(pageStr); err == nil {
				opts.Page = page
			}
		}
		if query.Get("pageTotal") == "false" {
			opts.PageTotal = false
		}

		result, err := s.sites.List(r.Context(), opts)
		if err != nil {
			s.writeError(w, err)
			return
		}

		resp := listResponse{OK: true, Items: result.Items}
		if resp.Items == nil {
			resp.Items = []sites.LocalSite{}
		}
		if opts.All || opts.PageTotal {
			resp.Pages = &pagesInfo{Total: result.TotalPages}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// CreateSiteHandler proxies a create call and returns the remote-assigned
// item, id included.
func (s *Server) CreateSiteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var site sites.NewSite
		if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
			writeJSONError(w, "validation", 0, "invalid JSON body", http.StatusBadRequest)
			return
		}

		created, err := s.sites.Create(r.Context(), site)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, createResponse{OK: true, Item: created})
	}
}

// DeleteSiteHandler proxies a delete by remote id. An already-deleted id
// comes back as a 404-kind error rather than a silent success.
func (s *Server) DeleteSiteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			writeJSONError(w, "validation", 0, "id is required", http.StatusBadRequest)
			return
		}

		if err := s.sites.Delete(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

// PreflightHandler answers CORS preflight for the API routes; the CORS
// middleware has already attached the headers.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeError maps a typed core error onto the local HTTP surface. The
// upstream status and message travel through untouched so the UI can show
// the real reason.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind, localStatus := classifyError(err)

	message := err.Error()
	var upstream *errors.UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		message = upstream.Message
	}

	writeJSONError(w, kind, errors.StatusOf(err), message, localStatus)
}

// classifyError picks the error-kind label and the status the local API
// answers with. Upstream statuses win where they exist.
func classifyError(err error) (string, int) {
	upstreamStatus := errors.StatusOf(err)

	switch {
	case errors.Is(err, errors.ErrNotAuthenticated):
		return "not_authenticated", http.StatusUnauthorized
	case errors.Is(err, errors.ErrAuthentication):
		return "authentication", http.StatusUnauthorized
	case errors.Is(err, errors.ErrRegionResolution):
		return "region_resolution", http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return "not_found", http.StatusNotFound
	case errors.Is(err, errors.ErrValidation):
		if upstreamStatus != 0 {
			return "validation", upstreamStatus
		}
		return "validation", http.StatusBadRequest
	case errors.Is(err, errors.ErrNetwork):
		return "network", http.StatusBadGateway
	default:
		if upstreamStatus != 0 {
			return "upstream", upstreamStatus
		}
		return "upstream", http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, kind string, upstreamStatus int, message string, localStatus int) {
	writeJSON(w, localStatus, errorResponse{
		OK:        false,
		ErrorKind: kind,
		Status:    upstreamStatus,
		Error:     message,
	})
}
