package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,UserReader,Recomputer,Notifier,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"talaty/internal/documents/models"
	"talaty/internal/documents/service/mocks"
	"talaty/internal/notify"
	"talaty/internal/recompute"
	scoremodels "talaty/internal/scoring/models"
	usermodels "talaty/internal/users/models"
	id "talaty/pkg/domain"
	dErrors "talaty/pkg/domain-errors"
	"talaty/pkg/platform/audit"
	"talaty/pkg/platform/sentinel"
	"talaty/pkg/requestcontext"
)

// =============================================================================
// Document Workflow Test Suite
// =============================================================================
// Justification for unit tests: the workflow enforces the review state
// machine and owns the rule that every committed change triggers exactly one
// recompute. Mocks make the recompute and notification side effects visible.

type DocumentServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	store      *mocks.MockStore
	users      *mocks.MockUserReader
	recomputer *mocks.MockRecomputer
	notifier   *mocks.MockNotifier
	audit      *mocks.MockAuditPublisher
	service    *Service
	ctx        context.Context
	now        time.Time
	owner      id.UserID
	reviewer   id.UserID
}

func TestDocumentServiceSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceSuite))
}

func (s *DocumentServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.users = mocks.NewMockUserReader(s.ctrl)
	s.recomputer = mocks.NewMockRecomputer(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.audit = mocks.NewMockAuditPublisher(s.ctrl)
	var err error
	s.service, err = New(s.store, s.users, s.recomputer,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithNotifier(s.notifier),
		WithAuditPublisher(s.audit),
	)
	s.Require().NoError(err)
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.owner = id.NewUserID()
	s.reviewer = id.NewUserID()
}

func (s *DocumentServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DocumentServiceSuite) pendingDoc() *models.Document {
	return &models.Document{
		ID:        id.NewDocumentID(),
		UserID:    s.owner,
		Type:      models.TypeBusinessLicense,
		Name:      "Business license",
		FileName:  "license.pdf",
		Status:    models.StatusPending,
		CreatedAt: s.now.Add(-time.Hour),
		UpdatedAt: s.now.Add(-time.Hour),
	}
}

func (s *DocumentServiceSuite) expectRecompute(userID id.UserID, cause recompute.Cause) {
	s.recomputer.EXPECT().
		Dispatch(gomock.Any(), recompute.Command{UserID: userID, Cause: cause}).
		Return(&scoremodels.Score{UserID: userID}, nil)
}

func (s *DocumentServiceSuite) expectOwner(userID id.UserID) {
	s.users.EXPECT().FindByID(gomock.Any(), userID).Return(&usermodels.User{ID: userID}, nil)
}

func (s *DocumentServiceSuite) TestNew() {
	_, err := New(nil, s.users, s.recomputer)
	s.ErrorContains(err, "document store is required")
	_, err = New(s.store, nil, s.recomputer)
	s.ErrorContains(err, "user reader is required")
	_, err = New(s.store, s.users, nil)
	s.ErrorContains(err, "recomputer is required")

	svc, err := New(s.store, s.users, s.recomputer, WithAllowedExtensions(nil))
	s.Require().NoError(err)
	s.Equal(defaultAllowedExtensions, svc.allowedExt, "empty list keeps defaults")
}

// =============================================================================
// Upload
// =============================================================================

func (s *DocumentServiceSuite) TestUpload() {
	s.Run("creates pending document and recomputes", func() {
		s.expectOwner(s.owner)
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		s.expectRecompute(s.owner, recompute.CauseDocumentUploaded)

		doc, err := s.service.Upload(s.ctx, s.owner, models.Upload{
			Type:     models.TypePassport,
			Name:     "Passport",
			FileName: "passport.PNG",
			FileSize: 1024,
		})
		s.Require().NoError(err)
		s.Equal(models.StatusPending, doc.Status)
		s.Equal(s.owner, doc.UserID)
		s.Equal(s.now, doc.CreatedAt)
	})

	s.Run("unknown owner is not found and nothing is stored", func() {
		s.users.EXPECT().FindByID(gomock.Any(), s.owner).Return(nil, sentinel.ErrNotFound)
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
		s.recomputer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Upload(s.ctx, s.owner, models.Upload{
			Type:     models.TypePassport,
			Name:     "Passport",
			FileName: "passport.pdf",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("user lookup failure is internal", func() {
		s.users.EXPECT().FindByID(gomock.Any(), s.owner).Return(nil, errors.New("db down"))
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Upload(s.ctx, s.owner, models.Upload{
			Type:     models.TypePassport,
			Name:     "Passport",
			FileName: "passport.pdf",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("rejected extension never reaches the store", func() {
		_, err := s.service.Upload(s.ctx, s.owner, models.Upload{
			Type:     models.TypePassport,
			Name:     "Passport",
			FileName: "passport.exe",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("store failure is internal", func() {
		s.expectOwner(s.owner)
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
		_, err := s.service.Upload(s.ctx, s.owner, models.Upload{
			Type:     models.TypeOther,
			Name:     "Misc",
			FileName: "misc.pdf",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// Verify
// =============================================================================

func (s *DocumentServiceSuite) TestVerify() {
	s.Run("approves pending document, notifies and recomputes", func() {
		doc := s.pendingDoc()
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		s.store.EXPECT().Transition(gomock.Any(), gomock.Any(), models.StatusPending).DoAndReturn(func(_ context.Context, d *models.Document, _ models.Status) error {
			s.Equal(models.StatusApproved, d.Status)
			s.Equal(s.reviewer, *d.VerifiedBy)
			s.Equal(s.now, *d.VerifiedAt)
			return nil
		})
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(audit.ActionDocumentVerified, e.Action)
			s.Equal(doc.ID.String(), e.Subject)
			s.Equal("approved", e.Decision)
			s.Equal("looks good", e.Reason)
			return nil
		})
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n notify.Notification) error {
			s.Equal(notify.KindDocumentStatusChanged, n.Kind)
			s.Equal("approved", n.Status)
			s.Equal("looks good", n.Notes)
			return nil
		})
		s.expectRecompute(s.owner, recompute.CauseDocumentVerified)

		got, err := s.service.Verify(s.ctx, doc.ID, models.StatusApproved, s.reviewer, "looks good")
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, got.Status)
	})

	s.Run("repeat verification is an invalid transition with no side effects", func() {
		doc := s.pendingDoc()
		doc.ApplyVerification(models.StatusApproved, s.reviewer, "", s.now.Add(-time.Minute))
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		s.store.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		s.recomputer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Verify(s.ctx, doc.ID, models.StatusApproved, s.reviewer, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("expired pending document cannot be reviewed", func() {
		doc := s.pendingDoc()
		past := s.now.Add(-time.Minute)
		doc.ExpiryDate = &past
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)

		_, err := s.service.Verify(s.ctx, doc.ID, models.StatusRejected, s.reviewer, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("target must be a review outcome", func() {
		doc := s.pendingDoc()
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)

		_, err := s.service.Verify(s.ctx, doc.ID, models.StatusExpired, s.reviewer, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing document", func() {
		missing := id.NewDocumentID()
		s.store.EXPECT().FindByID(gomock.Any(), missing).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Verify(s.ctx, missing, models.StatusApproved, s.reviewer, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("losing a concurrent review is an invalid transition with no side effects", func() {
		doc := s.pendingDoc()
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		// the other reviewer committed between our read and write
		s.store.EXPECT().Transition(gomock.Any(), gomock.Any(), models.StatusPending).Return(sentinel.ErrConflict)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(0)
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
		s.recomputer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Verify(s.ctx, doc.ID, models.StatusRejected, s.reviewer, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("document deleted before the write", func() {
		doc := s.pendingDoc()
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		s.store.EXPECT().Transition(gomock.Any(), gomock.Any(), models.StatusPending).Return(sentinel.ErrNotFound)
		s.recomputer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.Verify(s.ctx, doc.ID, models.StatusApproved, s.reviewer, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("notification failure does not fail the review", func() {
		doc := s.pendingDoc()
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		s.store.EXPECT().Transition(gomock.Any(), gomock.Any(), models.StatusPending).Return(nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit down"))
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
		s.expectRecompute(s.owner, recompute.CauseDocumentVerified)

		_, err := s.service.Verify(s.ctx, doc.ID, models.StatusRejected, s.reviewer, "")
		s.NoError(err)
	})

	s.Run("recompute failure surfaces as internal", func() {
		doc := s.pendingDoc()
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		s.store.EXPECT().Transition(gomock.Any(), gomock.Any(), models.StatusPending).Return(nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		s.recomputer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to save score"))

		_, err := s.service.Verify(s.ctx, doc.ID, models.StatusApproved, s.reviewer, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// Get / Delete
// =============================================================================

func (s *DocumentServiceSuite) TestGet() {
	doc := s.pendingDoc()

	s.Run("owner", func() {
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		got, err := s.service.Get(requestcontext.WithUserID(s.ctx, s.owner), doc.ID)
		s.Require().NoError(err)
		s.Equal(doc.ID, got.ID)
	})

	s.Run("reviewer", func() {
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		ctx := requestcontext.WithActor(s.ctx, s.reviewer, requestcontext.RoleReviewer)
		_, err := s.service.Get(ctx, doc.ID)
		s.NoError(err)
	})

	s.Run("other user sees not found", func() {
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		_, err := s.service.Get(requestcontext.WithUserID(s.ctx, id.NewUserID()), doc.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *DocumentServiceSuite) TestDelete() {
	s.Run("owner deletes and recomputes", func() {
		doc := s.pendingDoc()
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		s.store.EXPECT().Delete(gomock.Any(), doc.ID).Return(nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		s.expectRecompute(s.owner, recompute.CauseDocumentDeleted)

		s.NoError(s.service.Delete(s.ctx, doc.ID, s.owner))
	})

	s.Run("non-owner is forbidden", func() {
		doc := s.pendingDoc()
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		s.store.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

		err := s.service.Delete(s.ctx, doc.ID, id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing document", func() {
		missing := id.NewDocumentID()
		s.store.EXPECT().FindByID(gomock.Any(), missing).Return(nil, sentinel.ErrNotFound)
		s.True(dErrors.HasCode(s.service.Delete(s.ctx, missing, s.owner), dErrors.CodeNotFound))
	})

	s.Run("concurrent delete surfaces not found", func() {
		doc := s.pendingDoc()
		s.store.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
		s.store.EXPECT().Delete(gomock.Any(), doc.ID).Return(sentinel.ErrNotFound)
		s.True(dErrors.HasCode(s.service.Delete(s.ctx, doc.ID, s.owner), dErrors.CodeNotFound))
	})
}

// =============================================================================
// Expiry sweep
// =============================================================================

func (s *DocumentServiceSuite) TestSweepExpired() {
	past := s.now.Add(-time.Hour)
	first := s.pendingDoc()
	first.ExpiryDate = &past
	second := s.pendingDoc()
	second.Status = models.StatusApproved
	second.ExpiryDate = &past
	failing := s.pendingDoc()
	failing.UserID = id.NewUserID()
	failing.ExpiryDate = &past

	s.store.EXPECT().ListExpiryCandidates(gomock.Any(), s.now).
		Return([]*models.Document{first, second, failing}, nil)
	s.store.EXPECT().Transition(gomock.Any(), first, models.StatusPending).Return(nil)
	s.store.EXPECT().Transition(gomock.Any(), second, models.StatusApproved).Return(nil)
	s.store.EXPECT().Transition(gomock.Any(), failing, models.StatusPending).Return(errors.New("db down"))
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n notify.Notification) error {
		s.Equal(notify.KindDocumentExpired, n.Kind)
		s.Equal("expired", n.Status)
		return nil
	}).Times(2)
	// one recompute per owner, not per document
	s.expectRecompute(s.owner, recompute.CauseDocumentExpired)

	n, err := s.service.SweepExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal(models.StatusExpired, first.Status)
	s.Equal(models.StatusExpired, second.Status)
}

func (s *DocumentServiceSuite) TestSweepExpiredListingFailure() {
	s.store.EXPECT().ListExpiryCandidates(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	_, err := s.service.SweepExpired(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *DocumentServiceSuite) TestSweepExpiredSkipsDocumentsReviewedMeanwhile() {
	past := s.now.Add(-time.Hour)
	raced := s.pendingDoc()
	raced.ExpiryDate = &past

	s.store.EXPECT().ListExpiryCandidates(gomock.Any(), s.now).Return([]*models.Document{raced}, nil)
	s.store.EXPECT().Transition(gomock.Any(), raced, models.StatusPending).Return(sentinel.ErrConflict)
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Times(0)
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)
	s.recomputer.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Times(0)

	n, err := s.service.SweepExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, n)
}
