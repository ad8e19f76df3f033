/*
Package logx provides the structured logging wrapper used across the GM Pro server, built on zerolog.

This file holds the HTTP request logging middleware. Client addresses are anonymized
before they reach the log.
*/
package logx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// anonymizeIP zeroes the last IPv4 octet or the lower half of an IPv6 address.
func anonymizeIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return "unknown_ip"
	}

	if ip.IsLoopback() {
		return "127.0.0.1"
	}

	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}

	return ip.Mask(net.CIDRMask(64, 128)).String()
}

// quietPaths are polled by load balancers and scrapers; they log at Debug level.
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// RequestLogger returns a middleware that logs method, route, status, size and latency of
// every request. The per-request logger is stored in the request context so handlers can
// retrieve it with zerolog.Ctx. Long-lived upgrades and event streams are logged once they
// end.
func RequestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := Component("http").With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("request_method", r.Method).
				Str("request_path", r.URL.Path).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()

			var event *zerolog.Event
			switch _, quiet := quietPaths[r.URL.Path]; {
			case status >= 500:
				event = logger.Error()
			case status >= 400:
				event = logger.Warn()
			case quiet:
				event = logger.Debug()
			default:
				event = logger.Info()
			}

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					event = event.Str("route", pattern)
				}
			}

			event.
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("Request completed")
		}

		return http.HandlerFunc(fn)
	}
}
