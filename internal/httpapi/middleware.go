package httpapi

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxSessionID ctxKey = "session_id"

	sessionCookie = "sfsid"
)

// SessionMiddleware pins a session id to every request. Sessions are the
// storefront's unit of state: each one gets its own cart, customer and
// scheduling marker in storage.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
			sid = c.Value
		} else {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int((30 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), ctxSessionID, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(ctx context.Context) string {
	if sid, ok := ctx.Value(ctxSessionID).(string); ok {
		return sid
	}
	return ""
}

var mobilePattern = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// isMobile applies the coarse device heuristic that selects between the two
// handoff URL templates.
func isMobile(r *http.Request) bool {
	return mobilePattern.MatchString(r.UserAgent())
}
