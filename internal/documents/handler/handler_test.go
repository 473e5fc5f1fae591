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
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"talaty/internal/documents/handler/mocks"
	"talaty/internal/documents/models"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	"talaty/pkg/requestcontext"
	"talaty/pkg/testutil"
)

// =============================================================================
// Document Handler Test Suite
// =============================================================================
// Justification for unit tests: the handler owns request parsing, id
// validation and the mapping of workflow errors to HTTP statuses. The
// workflow itself is covered in the service suite.

type DocumentHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	userID  id.UserID
}

func TestDocumentHandlerSuite(t *testing.T) {
	suite.Run(t, new(DocumentHandlerSuite))
}

func (s *DocumentHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterReview(s.router)
	s.userID = id.NewUserID()
}

func (s *DocumentHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DocumentHandlerSuite) doc(status models.Status) *models.Document {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.Document{
		ID:        id.NewDocumentID(),
		UserID:    s.userID,
		Type:      models.TypePassport,
		Name:      "Passport",
		FileName:  "passport.pdf",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// Owner endpoints
// =============================================================================

func (s *DocumentHandlerSuite) TestUpload() {
	s.Run("registers metadata and returns 201", func() {
		doc := s.doc(models.StatusPending)
		s.service.EXPECT().Upload(gomock.Any(), s.userID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.UserID, up models.Upload) (*models.Document, error) {
				s.Equal(models.TypePassport, up.Type)
				s.Equal("Passport", up.Name)
				s.Require().NotNil(up.ExpiryDate)
				s.Equal(time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC), *up.ExpiryDate)
				return doc, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", map[string]any{
			"document_type": " Passport ",
			"document_name": "Passport",
			"file_name":     "passport.pdf",
			"file_size":     2048,
			"expiry_date":   "2030-01-31",
		})
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))

		s.Equal(http.StatusCreated, rr.Code)
		body := testutil.DecodeJSON[DocumentResponse](s.T(), rr)
		s.Equal(doc.ID.String(), body.ID)
		s.Equal("pending", body.Status)
	})

	s.Run("unknown document type is a validation error", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", map[string]any{
			"document_type": "selfie",
			"document_name": "Me",
			"file_name":     "me.png",
		})
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("malformed date is a validation error", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", map[string]any{
			"document_type": "passport",
			"document_name": "Passport",
			"file_name":     "passport.pdf",
			"issue_date":    "31/01/2020",
		})
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("malformed json", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", "{")
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("anonymous caller", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/documents", map[string]any{})
		rr := testutil.Serve(s.router, req)
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *DocumentHandlerSuite) TestList() {
	past := time.Now().Add(-time.Hour)
	expiring := s.doc(models.StatusApproved)
	expiring.ExpiryDate = &past
	s.service.EXPECT().ListByUser(gomock.Any(), s.userID).
		Return([]*models.Document{s.doc(models.StatusPending), expiring}, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/documents", nil)
	rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))

	s.Equal(http.StatusOK, rr.Code)
	body := testutil.DecodeJSON[ListResponse](s.T(), rr)
	s.Equal(2, body.Count)
	s.Equal("expired", body.Documents[1].Status, "past expiry reads as expired")
}

func (s *DocumentHandlerSuite) TestGet() {
	s.Run("invalid id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/documents/not-a-uuid", nil)
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("not found", func() {
		docID := id.NewDocumentID()
		s.service.EXPECT().Get(gomock.Any(), docID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "document not found"))
		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/documents/"+docID.String(), nil)
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))
		testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("owner sees document", func() {
		doc := s.doc(models.StatusPending)
		s.service.EXPECT().Get(gomock.Any(), doc.ID).Return(doc, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/documents/"+doc.ID.String(), nil)
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("other user gets 404", func() {
		doc := s.doc(models.StatusPending)
		doc.UserID = id.NewUserID()
		s.service.EXPECT().Get(gomock.Any(), doc.ID).Return(doc, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/documents/"+doc.ID.String(), nil)
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))
		testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("reviewer sees any document", func() {
		doc := s.doc(models.StatusPending)
		doc.UserID = id.NewUserID()
		s.service.EXPECT().Get(gomock.Any(), doc.ID).Return(doc, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/documents/"+doc.ID.String(), nil)
		rr := testutil.Serve(s.router, testutil.WithActor(req, s.userID, requestcontext.RoleReviewer))
		s.Equal(http.StatusOK, rr.Code)
	})
}

func (s *DocumentHandlerSuite) TestDelete() {
	s.Run("owner gets 204", func() {
		docID := id.NewDocumentID()
		s.service.EXPECT().Delete(gomock.Any(), docID, s.userID).Return(nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/documents/"+docID.String(), nil)
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))
		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("other user gets 403", func() {
		docID := id.NewDocumentID()
		s.service.EXPECT().Delete(gomock.Any(), docID, s.userID).
			Return(dErrors.New(dErrors.CodeForbidden, "document belongs to another user"))
		req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/documents/"+docID.String(), nil)
		rr := testutil.Serve(s.router, testutil.WithUser(req, s.userID))
		testutil.AssertError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

// =============================================================================
// Review endpoints
// =============================================================================

func (s *DocumentHandlerSuite) TestListForReview() {
	s.Run("parses status filter", func() {
		s.service.EXPECT().ListByStatus(gomock.Any(), []models.Status{models.StatusPending, models.StatusExpired}).
			Return([]*models.Document{}, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/documents?status=pending,%20EXPIRED", nil)
		rr := testutil.Serve(s.router, testutil.WithActor(req, s.userID, requestcontext.RoleReviewer))

		s.Equal(http.StatusOK, rr.Code)
		s.Equal(0, testutil.DecodeJSON[ListResponse](s.T(), rr).Count)
	})

	s.Run("unknown status", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/admin/documents?status=lost", nil)
		rr := testutil.Serve(s.router, testutil.WithActor(req, s.userID, requestcontext.RoleReviewer))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *DocumentHandlerSuite) TestVerify() {
	reviewer := id.NewUserID()

	s.Run("records decision", func() {
		doc := s.doc(models.StatusRejected)
		s.service.EXPECT().Verify(gomock.Any(), doc.ID, models.StatusRejected, reviewer, "blurry scan").Return(doc, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/documents/"+doc.ID.String()+"/verify", map[string]string{
			"status": "REJECTED",
			"notes":  " blurry scan ",
		})
		rr := testutil.Serve(s.router, testutil.WithActor(req, reviewer, requestcontext.RoleReviewer))

		s.Equal(http.StatusOK, rr.Code)
		s.Equal("rejected", testutil.DecodeJSON[DocumentResponse](s.T(), rr).Status)
	})

	s.Run("status outside review outcomes", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/documents/"+id.NewDocumentID().String()+"/verify", map[string]string{
			"status": "expired",
		})
		rr := testutil.Serve(s.router, testutil.WithActor(req, reviewer, requestcontext.RoleReviewer))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("second review conflicts", func() {
		docID := id.NewDocumentID()
		s.service.EXPECT().Verify(gomock.Any(), docID, models.StatusApproved, reviewer, "").
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "document is already approved"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/documents/"+docID.String()+"/verify", map[string]string{
			"status": "approved",
		})
		rr := testutil.Serve(s.router, testutil.WithActor(req, reviewer, requestcontext.RoleReviewer))
		testutil.AssertError(s.T(), rr, http.StatusConflict, "invalid_transition")
	})
}
