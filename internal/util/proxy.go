package util

import (
	"net/http"
	"net/url"
	"strings"
)

// ProxyFunc builds the Proxy callback for a judge transport from explicit
// proxy settings. Hosts listed in noProxy (comma-separated, subdomains
// included) connect directly. With no explicit settings the standard
// environment variables apply.
func ProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	direct := splitHosts(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		host := req.URL.Hostname()
		for _, d := range direct {
			if strings.EqualFold(host, d) || strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(d)) {
				return nil, nil
			}
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

func splitHosts(list string) []string {
	var hosts []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			hosts = append(hosts, part)
		}
	}
	return hosts
}
