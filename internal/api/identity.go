package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"sparks/internal/logger"
	"sparks/internal/model"
	"sparks/internal/service"
)

type ctxKey struct{}

const (
	headerTelegramID = "X-Telegram-User-ID"
	headerWallet     = "X-Wallet-Address"
)

// identify resolves the caller from the wallet header, the Telegram id
// header or the tg_id query parameter, in that order.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()

		if wallet := strings.TrimSpace(r.Header.Get(headerWallet)); wallet != "" {
			user, err := s.svc.Users.ByWallet(ctx, wallet)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKey{}, user)))
				return
			}
			if !errors.Is(err, service.ErrUserNotFound) {
				s.identityError(w, r, err)
				return
			}
		}

		raw := strings.TrimSpace(r.Header.Get(headerTelegramID))
		if raw == "" {
			raw = strings.TrimSpace(r.URL.Query().Get("tg_id"))
		}
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing authentication: provide X-Telegram-User-ID")
			return
		}
		tgID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid tg_id format, must be an integer")
			return
		}

		user, err := s.svc.Users.ByTelegramID(ctx, tgID)
		if err != nil {
			s.identityError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ctxKey{}, user)))
	})
}

func (s *Server) identityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "user not found")
	case errors.Is(err, service.ErrUserInactive):
		writeError(w, http.StatusForbidden, "user is not active")
	default:
		logger.WithRequestID(r.Context(), s.log).Error("resolve user", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func userFrom(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKey{}).(*model.User)
	return user
}
