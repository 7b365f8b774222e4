package middleware

import (
	"net/http"
	"strings"

	"appointment-booking/pkg/utils"
)

// ActorHeader carries the caller identity set by the upstream gateway.
const ActorHeader = "X-Actor-ID"

// Actor puts the caller identity into the request context so history rows
// record who made each change. Requests without the header act as system.
func Actor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actor == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(actor) > 128 {
				actor = actor[:128]
			}
			next.ServeHTTP(w, r.WithContext(utils.SetActorContext(r.Context(), actor)))
		})
	}
}
