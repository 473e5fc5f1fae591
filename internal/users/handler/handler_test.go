package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"talaty/internal/users/handler/mocks"
	"talaty/internal/users/models"
	"talaty/internal/users/service"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	"talaty/pkg/platform/audit"
	"talaty/pkg/requestcontext"
	"talaty/pkg/testutil"
)

func newRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	svc := mocks.NewMockService(gomock.NewController(t))
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterReview(r)
	h.RegisterAdmin(r)
	return r, svc
}

func TestHandleRegister(t *testing.T) {
	admin := id.NewUserID()

	t.Run("creates account", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Register(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, reg service.Registration) (*models.User, error) {
				assert.Equal(t, "owner@acme.io", reg.Email)
				assert.Equal(t, models.RoleReviewer, reg.Role)
				return &models.User{ID: id.NewUserID(), Email: reg.Email, Role: reg.Role}, nil
			})

		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/users", map[string]string{
			"email": " Owner@Acme.io ",
			"role":  "Reviewer",
		})
		rr := testutil.Serve(router, testutil.WithActor(req, admin, requestcontext.RoleAdmin))

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "owner@acme.io", testutil.DecodeJSON[models.User](t, rr).Email)
	})

	t.Run("invalid email", func(t *testing.T) {
		router, _ := newRouter(t)
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/users", map[string]string{"email": "nope"})
		rr := testutil.Serve(router, testutil.WithActor(req, admin, requestcontext.RoleAdmin))
		testutil.AssertError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("duplicate email", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "email already registered"))
		req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/users", map[string]string{"email": "dup@acme.io"})
		rr := testutil.Serve(router, testutil.WithActor(req, admin, requestcontext.RoleAdmin))
		testutil.AssertError(t, rr, http.StatusConflict, "conflict")
	})
}

func TestHandleUpdateVerification(t *testing.T) {
	reviewer := id.NewUserID()
	target := id.NewUserID()
	path := "/admin/users/" + target.String() + "/verification"

	t.Run("applies provided flags only", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().UpdateVerification(gomock.Any(), target, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.UserID, u models.VerificationUpdate) (*models.User, error) {
				require.NotNil(t, u.PhoneVerified)
				assert.True(t, *u.PhoneVerified)
				assert.Nil(t, u.EmailVerified)
				require.NotNil(t, u.KYCStatus)
				assert.Equal(t, models.KYCInReview, *u.KYCStatus)
				return &models.User{ID: target, PhoneVerified: true, KYCStatus: models.KYCInReview}, nil
			})

		req := testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{
			"phone_verified": true,
			"kyc_status":     "IN_REVIEW",
		})
		rr := testutil.Serve(router, testutil.WithActor(req, reviewer, requestcontext.RoleReviewer))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		router, _ := newRouter(t)
		req := testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{})
		rr := testutil.Serve(router, testutil.WithActor(req, reviewer, requestcontext.RoleReviewer))
		testutil.AssertError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("unknown kyc status", func(t *testing.T) {
		router, _ := newRouter(t)
		req := testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{"kyc_status": "done"})
		rr := testutil.Serve(router, testutil.WithActor(req, reviewer, requestcontext.RoleReviewer))
		testutil.AssertError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("unknown user", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().UpdateVerification(gomock.Any(), target, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "user not found"))
		req := testutil.NewJSONRequest(t, http.MethodPut, path, map[string]any{"email_verified": true})
		rr := testutil.Serve(router, testutil.WithActor(req, reviewer, requestcontext.RoleReviewer))
		testutil.AssertError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestHandleMe(t *testing.T) {
	router, svc := newRouter(t)
	userID := id.NewUserID()
	svc.EXPECT().Get(gomock.Any(), userID).Return(&models.User{ID: userID, Email: "me@acme.io"}, nil)

	rr := testutil.Serve(router, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodGet, "/users/me", nil), userID))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, userID, testutil.DecodeJSON[models.User](t, rr).ID)
}

func TestHandleAuditTrail(t *testing.T) {
	reviewer := id.NewUserID()
	target := id.NewUserID()
	at := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	t.Run("lists events", func(t *testing.T) {
		router, svc := newRouter(t)
		svc.EXPECT().AuditTrail(gomock.Any(), target).Return([]audit.Event{
			{Timestamp: at, UserID: target, ActorID: "system", Action: audit.ActionUserRegistered},
			{Timestamp: at.Add(time.Hour), UserID: target, ActorID: reviewer.String(), Action: audit.ActionVerificationUpdated, Decision: "approved"},
		}, nil)

		req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/users/"+target.String()+"/audit", nil)
		rr := testutil.Serve(router, testutil.WithActor(req, reviewer, requestcontext.RoleReviewer))

		require.Equal(t, http.StatusOK, rr.Code)
		body := testutil.DecodeJSON[AuditTrailResponse](t, rr)
		assert.Equal(t, 2, body.Count)
		assert.Equal(t, "verification_updated", body.Events[1].Action)
		assert.Equal(t, "approved", body.Events[1].Decision)
	})

	t.Run("malformed id", func(t *testing.T) {
		router, _ := newRouter(t)
		req := testutil.NewJSONRequest(t, http.MethodGet, "/admin/users/not-an-id/audit", nil)
		rr := testutil.Serve(router, testutil.WithActor(req, reviewer, requestcontext.RoleReviewer))
		testutil.AssertError(t, rr, http.StatusBadRequest, "validation_error")
	})
}
