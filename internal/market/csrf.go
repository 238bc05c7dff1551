package market

import (
	"net/http"
	"strings"
)

const (
	csrfCookieName = "csrftoken"
	csrfHeaderName = "X-CSRFToken"
)

// CookieValue extracts a cookie from a raw Cookie header string. The lookup
// splits on "; <name>=" after prefixing the string with "; ", so names that
// merely end with <name> do not match. Missing or duplicated cookies yield "".
func CookieValue(raw, name string) string {
	value := "; " + raw
	parts := strings.Split(value, "; "+name+"=")
	if len(parts) != 2 {
		return ""
	}
	token, _, _ := strings.Cut(parts[1], ";")
	return token
}

// rawCookies renders cookies the way a browser exposes document.cookie.
func rawCookies(cookies []*http.Cookie) string {
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

// csrfToken reads the current token from the jar. It is evaluated for every
// state-changing request so a rotated cookie is picked up immediately.
func (c *Client) csrfToken() string {
	if c.http.Jar == nil {
		return ""
	}
	return CookieValue(rawCookies(c.http.Jar.Cookies(c.baseURL)), csrfCookieName)
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
