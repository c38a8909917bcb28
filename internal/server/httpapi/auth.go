package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

type ctxKey string

const profileKey ctxKey = "profile"

// authenticate resolves the bearer token into an active profile and stores
// it in the request context.
func (h *handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			h.writeError(w, r, common.WithDetail(common.ErrorUnauthorized, "Not authenticated"))
			return
		}

		p, err := h.sessions.Resolve(r.Context(), token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		p, err = h.sessions.RequireActive(p)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), profileKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get(common.AuthorizationHeaderName))
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", false
	}
	return parts[1], true
}

func profileFrom(ctx context.Context) *models.Profile {
	p, _ := ctx.Value(profileKey).(*models.Profile)
	return p
}
