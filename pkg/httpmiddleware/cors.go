package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access to the API.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to call the API cross-origin.
	// Empty, or containing "*", allows every origin.
	AllowOrigins []string

	// AllowMethods lists methods permitted in actual requests. Empty falls
	// back to the common read/write set.
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. Empty echoes
	// whatever the preflight asked for.
	AllowHeaders []string

	// AllowCredentials permits cookies and auth headers on cross-origin
	// requests. Incompatible with the wildcard origin, so enabling it
	// switches to echoing the matched origin instead.
	AllowCredentials bool

	// MaxAge caps preflight caching in seconds. Zero omits the header,
	// negative sends "0".
	MaxAge int
}

// cors is the precomputed per-server CORS policy.
type cors struct {
	cfg          CORSConfig
	wildcard     bool
	origins      map[string]string // lowercased origin to configured spelling
	allowMethods string
	allowHeaders string
	maxAge       string
}

// CORS returns a middleware applying the given cross-origin policy,
// including preflight handling and Vary headers for shared caches.
func CORS(cfg CORSConfig) Middleware {
	c := &cors{
		cfg:          cfg,
		wildcard:     len(cfg.AllowOrigins) == 0,
		origins:      make(map[string]string, len(cfg.AllowOrigins)),
		allowMethods: strings.Join(cfg.AllowMethods, ", "),
		allowHeaders: strings.Join(cfg.AllowHeaders, ", "),
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.wildcard = true
		}
		c.origins[strings.ToLower(o)] = o
	}
	// Wildcard plus credentials is rejected by browsers; echo the matched
	// origin instead.
	if cfg.AllowCredentials {
		c.wildcard = false
	}
	if c.allowMethods == "" {
		c.allowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	switch {
	case cfg.MaxAge > 0:
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		c.maxAge = "0"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin request. Still vary on Origin when responses
				// differ per origin, so shared caches keep them apart.
				if !c.wildcard {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				c.preflight(w, r, origin)
				return
			}

			c.actual(w, origin)
			next.ServeHTTP(w, r)
		})
	}
}

func (c *cors) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	allow := c.allowOrigin(origin)
	if allow == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.Set("Access-Control-Allow-Origin", allow)
	h.Set("Access-Control-Allow-Methods", c.allowMethods)

	if c.allowHeaders != "" {
		h.Set("Access-Control-Allow-Headers", c.allowHeaders)
	} else if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
		h.Set("Access-Control-Allow-Headers", requested)
	}
	if c.cfg.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.maxAge != "" {
		h.Set("Access-Control-Max-Age", c.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *cors) actual(w http.ResponseWriter, origin string) {
	h := w.Header()
	if !c.wildcard {
		h.Add("Vary", "Origin")
	}
	allow := c.allowOrigin(origin)
	if allow == "" {
		return
	}
	h.Set("Access-Control-Allow-Origin", allow)
	if c.cfg.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

// allowOrigin resolves the Access-Control-Allow-Origin value for an incoming
// origin, or "" when the origin is not allowed. Matching ignores case but
// the configured spelling is echoed back.
func (c *cors) allowOrigin(origin string) string {
	if c.wildcard {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}
