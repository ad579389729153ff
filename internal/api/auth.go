package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flavien-hugs/unsta-sfs/internal/config"
	"github.com/flavien-hugs/unsta-sfs/internal/logging"
	"github.com/flavien-hugs/unsta-sfs/internal/service"
)

// AccessChecker asks a remote permission service whether the caller's token
// grants a set of permissions. Token semantics stay opaque here; the
// Authorization header is forwarded verbatim.
type AccessChecker struct {
	checkURL string // empty disables all checks
	client   *http.Client
	log      logging.Logger
}

func NewAccessChecker(cfg *config.Config, log logging.Logger) *AccessChecker {
	ac := &AccessChecker{client: &http.Client{Timeout: 10 * time.Second}, log: log}
	if cfg.AuthURLBase != "" {
		ac.checkURL = strings.TrimRight(cfg.AuthURLBase, "/") + cfg.AuthCheckEndpoint
	}
	return ac
}

// Require returns a middleware denying the request unless the permission
// service confirms access for all listed permissions.
func (a *AccessChecker) Require(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.checkURL == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !a.allowed(r, permissions) {
				respondError(w, a.log, service.E(service.CodeAccessDenied, http.StatusForbidden, "access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *AccessChecker) allowed(r *http.Request, permissions []string) bool {
	q := url.Values{}
	for _, p := range permissions {
		q.Add("permission", p)
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, a.checkURL+"?"+q.Encode(), nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", r.Header.Get("Authorization"))

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Error("permission service unreachable", "error", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	var out struct {
		Access bool `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false
	}
	return out.Access
}
