package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "talaty/pkg/domain"
	"talaty/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return v.claims, v.err
}

type AuthMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AuthMiddlewareSuite) TestRequireAuth() {
	userID := uuid.New()

	s.Run("valid token places actor on context", func() {
		var gotRole requestcontext.Role
		var gotUser string
		h := RequireAuth(stubValidator{claims: &JWTClaims{UserID: userID.String(), Role: "reviewer"}}, s.logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotRole = requestcontext.ActorRole(r.Context())
				gotUser = requestcontext.UserID(r.Context()).String()
			}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		s.Equal(http.StatusOK, w.Code)
		s.Equal(requestcontext.RoleReviewer, gotRole)
		s.Equal(userID.String(), gotUser)
	})

	s.Run("unknown role downgrades to user", func() {
		var gotRole requestcontext.Role
		h := RequireAuth(stubValidator{claims: &JWTClaims{UserID: userID.String(), Role: "superuser"}}, s.logger)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotRole = requestcontext.ActorRole(r.Context())
			}))

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer token")
		h.ServeHTTP(httptest.NewRecorder(), r)

		s.Equal(requestcontext.RoleUser, gotRole)
	})

	s.Run("missing header is unauthorized", func() {
		h := RequireAuth(stubValidator{}, s.logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			s.Fail("handler must not run")
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		s.Equal(http.StatusUnauthorized, w.Code)
		s.Contains(w.Body.String(), "unauthorized")
	})

	s.Run("invalid token is unauthorized", func() {
		h := RequireAuth(stubValidator{err: errors.New("bad signature")}, s.logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			s.Fail("handler must not run")
		}))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("non-uuid subject is unauthorized", func() {
		h := RequireAuth(stubValidator{claims: &JWTClaims{UserID: "42"}}, s.logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			s.Fail("handler must not run")
		}))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *AuthMiddlewareSuite) TestRequireRole() {
	h := RequireRole(s.logger, requestcontext.RoleAdmin, requestcontext.RoleReviewer)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	s.Run("reviewer allowed", func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(requestcontext.WithActor(r.Context(), id.UserID(uuid.New()), requestcontext.RoleReviewer))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("plain user forbidden", func() {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(requestcontext.WithActor(r.Context(), id.UserID(uuid.New()), requestcontext.RoleUser))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		s.Equal(http.StatusForbidden, w.Code)
		s.Contains(w.Body.String(), "forbidden")
	})
}
