package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// ProxySettings overrides the HTTP_PROXY family of environment variables
type ProxySettings struct {
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// IsZero reports whether no override is configured
func (p ProxySettings) IsZero() bool {
	return p.HTTPProxy == "" && p.HTTPSProxy == ""
}

// NewProxyFunc builds the transport's Proxy hook. Without overrides the
// environment decides.
func NewProxyFunc(p ProxySettings) func(*http.Request) (*url.URL, error) {
	if p.IsZero() {
		return http.ProxyFromEnvironment
	}

	env := httpproxy.FromEnvironment()
	cfg := &httpproxy.Config{
		HTTPProxy:  firstNonEmpty(p.HTTPProxy, env.HTTPProxy),
		HTTPSProxy: firstNonEmpty(p.HTTPSProxy, p.HTTPProxy, env.HTTPSProxy),
		NoProxy:    firstNonEmpty(p.NoProxy, env.NoProxy),
	}
	proxyFor := cfg.ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return proxyFor(req.URL)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
