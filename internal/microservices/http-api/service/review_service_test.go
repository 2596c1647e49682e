package service

import (
	"testing"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReviews(f *loanFixture) ReviewService {
	return NewReviewService(
		repository.NewReviewRepository(f.db),
		repository.NewBookRepository(f.db),
		repository.NewLoanRepository(f.db),
	)
}

func TestReview_OnlyBorrowersMayReview(t *testing.T) {
	f := newLoanFixture(t)
	svc := newTestReviews(f)
	reader, stranger := f.user(), f.user()
	book := f.book(2)

	// a pending reservation is not enough
	loan := f.checkout(reader.ID, book.ID, 1)
	_, err := svc.Create(f.ctx, reader.ID, dto.CreateReviewRequest{BookID: book.ID, Rating: 4})
	assert.ErrorIs(t, err, ErrReviewNotAllowed)

	_, err = f.loans.Confirm(f.ctx, loan.ID)
	require.NoError(t, err)

	review, err := svc.Create(f.ctx, reader.ID, dto.CreateReviewRequest{BookID: book.ID, Rating: 4, Comment: "  slow start  "})
	require.NoError(t, err)
	assert.Equal(t, "slow start", review.Comment)
	assert.Equal(t, models.ReviewVisible, review.Status)

	_, err = svc.Create(f.ctx, reader.ID, dto.CreateReviewRequest{BookID: book.ID, Rating: 5})
	assert.ErrorIs(t, err, ErrReviewExists)

	_, err = svc.Create(f.ctx, stranger.ID, dto.CreateReviewRequest{BookID: book.ID, Rating: 1})
	assert.ErrorIs(t, err, ErrReviewNotAllowed)

	_, err = svc.Create(f.ctx, reader.ID, dto.CreateReviewRequest{BookID: 9999, Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(f.ctx, reader.ID, dto.CreateReviewRequest{BookID: book.ID, Rating: 6})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReview_UpdateDeleteAndAverage(t *testing.T) {
	f := newLoanFixture(t)
	svc := newTestReviews(f)
	a, b := f.user(), f.user()
	book := f.book(2)
	f.borrowed(a.ID, book.ID, 1)
	f.borrowed(b.ID, book.ID, 1)

	ra, err := svc.Create(f.ctx, a.ID, dto.CreateReviewRequest{BookID: book.ID, Rating: 2})
	require.NoError(t, err)
	_, err = svc.Create(f.ctx, b.ID, dto.CreateReviewRequest{BookID: book.ID, Rating: 5})
	require.NoError(t, err)

	_, err = svc.Update(f.ctx, Actor{UserID: b.ID, Role: models.RoleUser}, ra.ID, dto.UpdateReviewRequest{Rating: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(f.ctx, Actor{UserID: a.ID, Role: models.RoleUser}, ra.ID, dto.UpdateReviewRequest{Rating: 3, Comment: "grew on me"})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)

	page, err := svc.ListForBook(f.ctx, book.ID, dto.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.InDelta(t, 4.0, page.Average, 0.001)
	assert.Len(t, page.Data, 2)

	assert.ErrorIs(t, svc.Delete(f.ctx, Actor{UserID: b.ID, Role: models.RoleUser}, ra.ID), ErrForbidden)
	require.NoError(t, svc.Delete(f.ctx, Actor{Role: models.RoleAdmin}, ra.ID))
	assert.ErrorIs(t, svc.Delete(f.ctx, Actor{Role: models.RoleAdmin}, ra.ID), ErrNotFound)

	page, err = svc.ListForBook(f.ctx, book.ID, dto.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.InDelta(t, 5.0, page.Average, 0.001)

	_, err = svc.ListForBook(f.ctx, 9999, dto.Pagination{})
	assert.ErrorIs(t, err, ErrNotFound)
}
