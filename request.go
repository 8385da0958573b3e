package ipmapper

import (
	"net/http"
)

// Request is the view of an in-flight request that Mapper needs from its host
// pipeline. Header names are passed in canonical MIME form.
//
// HTTPRequest adapts *http.Request; other frameworks can implement the
// interface directly.
type Request interface {
	// Header returns the first value of the named header and whether the
	// header is present at all (an empty value still counts as present).
	Header(name string) (string, bool)
	// RemoteAddress returns the peer address without port.
	RemoteAddress() string
	// RemoveHeader removes every value of the named header.
	RemoveHeader(name string)
	// SetHeader replaces the named header with a single value.
	SetHeader(name, value string)
}

type httpRequest struct {
	r *http.Request
}

// HTTPRequest adapts r to Request. Header changes are applied to r.Header.
func HTTPRequest(r *http.Request) Request {
	return httpRequest{r: r}
}

func (h httpRequest) Header(name string) (string, bool) {
	values := h.r.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (h httpRequest) RemoteAddress() string {
	return hostFromRemoteAddr(h.r.RemoteAddr)
}

func (h httpRequest) RemoveHeader(name string) {
	h.r.Header.Del(name)
}

func (h httpRequest) SetHeader(name, value string) {
	if h.r.Header == nil {
		h.r.Header = make(http.Header)
	}
	h.r.Header.Set(name, value)
}

func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.Path
}
