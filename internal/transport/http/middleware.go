// Copyright 2026 The DocVault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docvault/docvault/internal/logsink"
	"github.com/docvault/docvault/internal/observability/logger"
	"github.com/docvault/docvault/internal/token"
	"github.com/go-chi/chi/v5/middleware"
)

// LoggingMiddleware logs HTTP requests and optionally forwards an
// access-log entry to the external collector.
func LoggingMiddleware(sink *logsink.Sink) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				duration := time.Since(start)

				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(duration.Milliseconds()),
				)

				if sink != nil {
					sink.Record(logsink.Entry{
						Timestamp:  start,
						Method:     r.Method,
						Path:       r.URL.Path,
						StatusCode: ww.Status(),
						DurationMS: duration.Milliseconds(),
						RemoteAddr: getIPAddress(r),
						UserAgent:  r.UserAgent(),
						Username:   GetUsername(r.Context()),
						RequestID:  middleware.GetReqID(r.Context()),
					})
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware verifies the bearer token and adds the subject to the
// request context. Expired tokens get a distinct message so clients
// know to refresh rather than re-authenticate.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := bearerToken(r)
		if value == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		username, err := h.codec.Verify(value)
		if err != nil {
			if errors.Is(err, token.ErrTokenExpired) {
				respondError(w, http.StatusUnauthorized, "session token expired")
				return
			}
			respondError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
