package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/zusplus/zusplus/internal/idp/store"
	"github.com/zusplus/zusplus/internal/idp/token"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/idp"
	"github.com/zusplus/zusplus/pkg/slogx"
)

// BearerAuth verifies the session token and checks the backing session row
// is still active. The row check means a revoked session fails immediately,
// even though the token signature stays valid until expiry.
func BearerAuth(codec *token.Codec, st store.Store) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				idp.ErrInvalidToken.WriteError(w)
				return
			}

			claims, err := codec.Verify(raw)
			if err != nil {
				log.Warn("rejected session token", "err", err)
				idp.ErrInvalidToken.WriteError(w)
				return
			}

			sess, err := st.Sessions().GetSession(ctx, claims.SID)
			if err != nil || !sess.Active(time.Now().UTC()) {
				idp.ErrInvalidToken.WriteError(w)
				return
			}

			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, sess.UserID)
			ctx = context.WithValue(ctx, httpx.CtxKeyEmail, claims.Email)
			ctx = context.WithValue(ctx, httpx.CtxKeySessionID, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
