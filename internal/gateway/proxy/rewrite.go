// Package proxy relays classified gateway requests to downstream services.
package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dwikikusuma/shopmesh/internal/gateway/auth"
	"github.com/dwikikusuma/shopmesh/pkg/httpx"
)

// hopHeaders apply to a single connection and are never relayed.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Host",
	"Content-Length",
}

// Target is where a rewritten request goes.
type Target struct {
	Base *url.URL
	Path string
}

// Rewrite builds the downstream request for in without touching in. The
// identity headers are always taken from id, never from the caller.
func Rewrite(ctx context.Context, in *http.Request, to Target, id *auth.Identity) (*http.Request, error) {
	u := *to.Base
	u.Path = strings.TrimRight(to.Base.Path, "/") + to.Path
	u.RawPath = ""
	u.RawQuery = in.URL.RawQuery
	u.Fragment = ""

	out, err := http.NewRequestWithContext(ctx, in.Method, u.String(), in.Body)
	if err != nil {
		return nil, fmt.Errorf("build downstream request: %w", err)
	}
	out.ContentLength = in.ContentLength
	if in.Body == nil || in.Body == http.NoBody {
		out.Body = http.NoBody
		out.ContentLength = 0
	}

	out.Header = cleanHeaders(in.Header)
	out.Header.Del(httpx.HeaderUserID)
	out.Header.Del(httpx.HeaderUserEmail)
	if id != nil {
		out.Header.Set(httpx.HeaderUserID, strconv.FormatInt(id.UserID, 10))
		if id.Email != "" {
			out.Header.Set(httpx.HeaderUserEmail, id.Email)
		}
	}

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		out.Header.Set(httpx.HeaderRequestID, reqID)
	}
	if ip := clientIP(in.RemoteAddr); ip != "" {
		if prior := out.Header.Get("X-Forwarded-For"); prior != "" {
			ip = prior + ", " + ip
		}
		out.Header.Set("X-Forwarded-For", ip)
	}
	return out, nil
}

// clientIP accepts both host:port and a bare address.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	if ip := net.ParseIP(strings.TrimSpace(remoteAddr)); ip != nil {
		return ip.String()
	}
	return ""
}

// cleanHeaders copies h without hop-by-hop headers, including any listed in
// the Connection header.
func cleanHeaders(h http.Header) http.Header {
	out := h.Clone()
	if out == nil {
		out = http.Header{}
	}
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = textproto.TrimString(name); name != "" {
				out.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		out.Del(name)
	}
	return out
}
