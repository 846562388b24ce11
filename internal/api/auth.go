package api

import (
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"butterfly/internal/config"
)

const (
	PermAdminBookings = "admin:bookings"
	PermAdminMenu     = "admin:menu"

	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	clientKeyUnknown      = "unknown"
)

var (
	errMissingKey       = errors.New("missing api key headers")
	errInvalidKey       = errors.New("invalid api key")
	errInvalidExtra     = errors.New("invalid extra header")
	errPermissionDenied = errors.New("permission denied")
)

// HTTPAuth checks the API-key pair on admin routes and rate limits every
// client by verified key or remote host.
type HTTPAuth struct {
	cfg      config.APIConfig
	clients  map[string]config.APIClientKey
	limiter  *rateLimiter
	keyName  string
	extraKey string
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}

	keyName := strings.TrimSpace(cfg.Auth.HeaderAPIKey)
	if keyName == "" {
		keyName = apiKeyHeaderDefault
	}
	extraKey := strings.TrimSpace(cfg.Auth.HeaderExtra)
	if extraKey == "" {
		extraKey = apiExtraHeaderDefault
	}

	return &HTTPAuth{
		cfg:      cfg,
		clients:  m,
		limiter:  newRateLimiter(cfg.RateLimit),
		keyName:  keyName,
		extraKey: extraKey,
	}
}

// Require guards an admin handler with the given permission. With auth
// disabled the handler is returned as is.
func (a *HTTPAuth) Require(permission string, next http.HandlerFunc) http.Handler {
	if !a.cfg.Auth.Enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.checkAuth(r, permission); err != nil {
			statusCode := http.StatusUnauthorized
			if errors.Is(err, errPermissionDenied) {
				statusCode = http.StatusForbidden
			}
			writeError(w, statusCode, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects clients that exhausted their token bucket.
func (a *HTTPAuth) RateLimit(next http.Handler) http.Handler {
	if !a.limiter.enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if !a.limiter.Allow(a.clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) checkAuth(r *http.Request, permission string) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.keyName))
	extra := strings.TrimSpace(r.Header.Get(a.extraKey))
	if apiKey == "" || extra == "" {
		return errMissingKey
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return errInvalidKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return errInvalidExtra
	}

	return checkPermissions(client, permission)
}

func checkPermissions(client config.APIClientKey, required string) error {
	if required == "" {
		return nil
	}
	// пустой список разрешений означает полный доступ
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

// clientKey buckets verified API clients by key; everyone else, including
// callers with an unknown key, shares the bucket of their remote host.
func (a *HTTPAuth) clientKey(r *http.Request) string {
	if a.checkAuth(r, "") == nil {
		return "key:" + strings.TrimSpace(r.Header.Get(a.keyName))
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return "host:" + host
	}
	return clientKeyUnknown
}
