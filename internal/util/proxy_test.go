package util

import (
	"net/http"
	"net/url"
	"testing"
)

func request(t *testing.T, rawURL string) *http.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return &http.Request{URL: u}
}

func TestProxyFunc_SchemeSelection(t *testing.T) {
	proxy := ProxyFunc("http://proxy-a:3128", "http://proxy-b:3128", "")

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"https request", "https://api.example.com/v1", "http://proxy-b:3128"},
		{"http request", "http://api.example.com/v1", "http://proxy-a:3128"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := proxy(request(t, tt.url))
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("Expected %s, got %v", tt.want, got)
			}
		})
	}
}

func TestProxyFunc_NoProxyList(t *testing.T) {
	proxy := ProxyFunc("http://proxy-a:3128", "", "localhost, internal.example.com")

	tests := []struct {
		name   string
		url    string
		direct bool
	}{
		{"listed host", "http://localhost:8080/api", true},
		{"listed domain", "https://internal.example.com/v1", true},
		{"subdomain of listed domain", "https://api.internal.example.com/v1", true},
		{"unlisted host", "http://api.example.com/v1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := proxy(request(t, tt.url))
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if tt.direct && got != nil {
				t.Errorf("Expected direct connection, got proxy %v", got)
			}
			if !tt.direct && got == nil {
				t.Error("Expected the proxy to apply")
			}
		})
	}
}
