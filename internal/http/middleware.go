package http

import (
	"net/http"
	"strings"

	"contas/internal/auth"
	"contas/internal/core"
	applog "contas/internal/log"
)

type authedHandler func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// authed verifies the bearer token and passes the caller's identity on. The
// user id every handler acts for comes from here and nowhere else.
func (s *Server) authed(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="contas"`)
			writeError(w, r, &core.AuthError{Err: auth.ErrInvalidToken})
			return
		}
		id, err := s.deps.Tokens.Verify(raw)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="contas", error="invalid_token"`)
			writeError(w, r, err)
			return
		}

		ctx := auth.WithIdentity(r.Context(), id)
		ctx = applog.WithLogger(ctx, applog.FromContext(ctx).With(applog.FieldUserID, id.UserID))
		next(w, r.WithContext(ctx), id)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
