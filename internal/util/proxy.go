// Package util holds small helpers shared by the outbound HTTP clients.
package util

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to environment variables.
// noProxy is a comma-separated list of hosts or domain suffixes (".corp")
// reached directly; "*" disables proxying.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	bypass := parseNoProxy(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		if bypass(req.URL.Hostname()) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func parseNoProxy(noProxy string) func(host string) bool {
	var entries []string
	for _, e := range strings.Split(noProxy, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			entries = append(entries, e)
		}
	}

	return func(host string) bool {
		host = strings.ToLower(host)
		for _, e := range entries {
			switch {
			case e == "*":
				return true
			case strings.HasPrefix(e, "."):
				if strings.HasSuffix(host, e) || host == e[1:] {
					return true
				}
			case host == e || strings.HasSuffix(host, "."+e):
				return true
			}
		}
		return false
	}
}
