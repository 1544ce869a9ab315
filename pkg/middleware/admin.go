package middleware

import (
	"net/http"
	"regexp"

	"github.com/julienschmidt/httprouter"

	"mybad/pkg/auth"
	"mybad/pkg/logger"
)

var bearerRegex = regexp.MustCompile(`(?i)^bearer\s+(\S+)$`)

// RequireAdmin guards court administration routes with a JWT carrying an
// admin claim. Applied per-route rather than on the whole stack since the
// booking routes are identified by pseudo, not by token.
func RequireAdmin(issuer *auth.TokenIssuer, log *logger.Logger) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			token := extractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				reject(w, log, r, "missing bearer token")
				return
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				reject(w, log, r, err.Error())
				return
			}
			if !claims.IsAdmin {
				reject(w, log, r, "token has no admin claim")
				return
			}

			next(w, r, ps)
		}
	}
}

func extractBearerToken(header string) string {
	matches := bearerRegex.FindStringSubmatch(header)
	if matches == nil {
		return ""
	}
	return matches[1]
}

func reject(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	requestID := ""
	if rid := r.Context().Value(RequestIDKey); rid != nil {
		if id, ok := rid.(string); ok {
			requestID = id
		}
	}

	log.Warn("Unauthorized admin request",
		"request_id", requestID,
		"path", r.URL.Path,
		"method", r.Method,
		"reason", reason,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"You are not authorized to access this resource"}`))
}
