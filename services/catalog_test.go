package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-backend/apperrors"
	"catalog-backend/media"
	"catalog-backend/models"
	"catalog-backend/repository"
)

func productNames(products []models.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func TestList_KeywordPagination(t *testing.T) {
	env := newTestEnv(2)
	ctx := context.Background()
	seedProduct(t, env.repo, "Nikon D750", 0, nil)
	seedProduct(t, env.repo, "Canon EOS", 0, nil)
	seedProduct(t, env.repo, "nikon Z6", 0, nil)
	seedProduct(t, env.repo, "Nikon Lens", 0, nil)

	page, err := env.catalog.List(ctx, "NIKON", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nikon D750", "nikon Z6"}, productNames(page.Products))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Pages)

	page, err = env.catalog.List(ctx, "nikon", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nikon Lens"}, productNames(page.Products))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Pages)
}

func TestList_PagePastEnd(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	seedProduct(t, env.repo, "Camera", 0, nil)

	page, err := env.catalog.List(ctx, "", 99)
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.NotNil(t, page.Products)
	assert.Equal(t, 99, page.Page)
	assert.Equal(t, 1, page.Pages)
}

func TestList_HugePageNumberIsEmpty(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	seedProduct(t, env.repo, "Camera", 0, nil)

	for _, page := range []int{2305843009213693953, math.MaxInt} {
		got, err := env.catalog.List(ctx, "", page)
		require.NoError(t, err)
		assert.Empty(t, got.Products, "page %d", page)
		assert.Equal(t, page, got.Page)
		assert.Equal(t, 1, got.Pages)
	}
}

func TestList_EmptyAndDefaults(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()

	page, err := env.catalog.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 0, page.Pages)
}

func TestList_KeywordIsLiteral(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	seedProduct(t, env.repo, "Camera (v2)", 0, nil)
	seedProduct(t, env.repo, "Camera v2", 0, nil)

	page, err := env.catalog.List(ctx, "(v2)", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Camera (v2)"}, productNames(page.Products))
}

func TestTopRated(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	seedProduct(t, env.repo, "Three", 3.0, nil)
	seedProduct(t, env.repo, "FourFive", 4.5, nil)
	seedProduct(t, env.repo, "Five", 5.0, nil)
	seedProduct(t, env.repo, "One", 1.0, nil)

	top, err := env.catalog.TopRated(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []float64{5.0, 4.5, 3.0}, []float64{top[0].Rating, top[1].Rating, top[2].Rating})

	top, err = env.catalog.TopRated(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 4)
}

func TestGetByID(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	p := seedProduct(t, env.repo, "Camera", 0, nil)

	got, err := env.catalog.GetByID(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Camera", got.Name)

	_, err = env.catalog.GetByID(ctx, "xyz")
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))

	_, err = env.catalog.GetByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestCreate_DefaultImage(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	admin := adminPrincipal()

	p, err := env.catalog.Create(ctx, admin, models.ProductInput{Name: "Camera", Price: 0, CountInStock: 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/images/sample.jpg", p.Image)
	assert.Nil(t, p.ExternalID)
	assert.Equal(t, admin.UserID, p.User)
	assert.NotNil(t, p.Reviews)
	assert.Zero(t, p.NumReviews)
	assert.Zero(t, p.Rating)
	env.store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestCreate_ClientReference(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()

	p, err := env.catalog.Create(ctx, adminPrincipal(), models.ProductInput{
		Name:       "Camera",
		Price:      99.5,
		Image:      "https://cdn/abc123.jpg",
		ExternalID: "abc123",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/abc123.jpg", p.Image)
	require.NotNil(t, p.ExternalID)
	assert.Equal(t, "abc123", *p.ExternalID)

	_, err = env.catalog.Create(ctx, adminPrincipal(), models.ProductInput{Name: "Lens", ExternalID: "orphan"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreate_WithUpload(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()

	env.store.On("Upload", mock.Anything, mock.MatchedBy(func(in *media.UploadInput) bool {
		return in.Folder == "products" && in.FileName == "camera.png"
	})).Return(&media.UploadResult{URL: "https://cdn/up1.png", ExternalID: "products/up1"}, nil).Once()

	p, err := env.catalog.Create(ctx, adminPrincipal(), models.ProductInput{Name: "Camera"}, &ImageUpload{
		FileName:    "camera.png",
		ContentType: "image/png",
		Size:        4,
		Data:        strings.NewReader("data"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/up1.png", p.Image)
	assert.Equal(t, "products/up1", *p.ExternalID)
	env.store.AssertExpectations(t)
}

func TestCreate_UploadErrors(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()

	_, err := env.catalog.Create(ctx, adminPrincipal(), models.ProductInput{Name: "Camera"}, &ImageUpload{
		FileName: "notes.txt", ContentType: "text/plain", Size: 4, Data: strings.NewReader("data"),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	env.store.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("network down")).Once()
	_, err = env.catalog.Create(ctx, adminPrincipal(), models.ProductInput{Name: "Camera"}, &ImageUpload{
		FileName: "camera.jpg", ContentType: "image/jpeg", Size: 4, Data: strings.NewReader("data"),
	})
	assert.ErrorIs(t, err, apperrors.ErrMediaUpload)

	count, err := env.repo.Count(ctx, repository.Filter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreate_ValidationAndAccess(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()

	_, err := env.catalog.Create(ctx, adminPrincipal(), models.ProductInput{Name: "", Price: 1}, nil)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, apperrors.From(err).Fields, "name")

	_, err = env.catalog.Create(ctx, adminPrincipal(), models.ProductInput{Name: "Camera", Price: -1}, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = env.catalog.Create(ctx, customer("Bob"), models.ProductInput{Name: "Camera"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.catalog.Create(ctx, nil, models.ProductInput{Name: "Camera"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUpdate_PartialFieldsKeepImage(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	p := seedProduct(t, env.repo, "Camera", 0, strPtr("abc123"))
	price, stock := 0.0, 0

	got, err := env.catalog.Update(ctx, adminPrincipal(), p.ID.Hex(), models.ProductUpdate{
		Price:        &price,
		CountInStock: &stock,
		Brand:        strPtr("Nikon"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Camera", got.Name)
	assert.Equal(t, "Nikon", got.Brand)
	assert.Zero(t, got.Price)
	assert.Zero(t, got.CountInStock)
	assert.Equal(t, p.Image, got.Image)
	assert.Equal(t, "abc123", *got.ExternalID)
	env.store.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything)
}

func TestUpdate_ReplacesImage(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	p := seedProduct(t, env.repo, "Camera", 0, strPtr("abc123"))

	env.store.On("Destroy", mock.Anything, "abc123").Return(errors.New("store unavailable")).Once()

	got, err := env.catalog.Update(ctx, adminPrincipal(), p.ID.Hex(), models.ProductUpdate{
		Name:       strPtr("Camera II"),
		Image:      strPtr("https://cdn/xyz789.jpg"),
		ExternalID: strPtr("xyz789"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Camera II", got.Name)

	stored, err := env.repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/xyz789.jpg", stored.Image)
	assert.Equal(t, "xyz789", *stored.ExternalID)
	env.store.AssertExpectations(t)
}

func TestUpdate_Errors(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	p := seedProduct(t, env.repo, "Camera", 0, nil)

	_, err := env.catalog.Update(ctx, adminPrincipal(), "nope", models.ProductUpdate{}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)

	_, err = env.catalog.Update(ctx, adminPrincipal(), primitive.NewObjectID().Hex(), models.ProductUpdate{}, &ImageUpload{
		FileName: "camera.jpg", Size: 1, Data: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	env.store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)

	_, err = env.catalog.Update(ctx, adminPrincipal(), p.ID.Hex(), models.ProductUpdate{ExternalID: strPtr("abc")}, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = env.catalog.Update(ctx, customer("Bob"), p.ID.Hex(), models.ProductUpdate{Name: strPtr("x")}, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUpdate_WithUploadDeletesPrevious(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	p := seedProduct(t, env.repo, "Camera", 0, strPtr("abc123"))

	env.store.On("Upload", mock.Anything, mock.Anything).Return(&media.UploadResult{URL: "https://cdn/new.webp", ExternalID: "products/new"}, nil).Once()
	env.store.On("Destroy", mock.Anything, "abc123").Return(nil).Once()

	got, err := env.catalog.Update(ctx, adminPrincipal(), p.ID.Hex(), models.ProductUpdate{}, &ImageUpload{
		FileName: "new.webp", ContentType: "image/webp", Size: 3, Data: strings.NewReader("new"),
	})
	require.NoError(t, err)
	assert.Equal(t, "products/new", *got.ExternalID)
	env.store.AssertExpectations(t)
}

func TestDelete_ReleasesImageOnce(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	p := seedProduct(t, env.repo, "Camera", 0, strPtr("abc123"))

	env.store.On("Destroy", mock.Anything, "abc123").Return(errors.New("store unavailable")).Once()

	outcome, err := env.catalog.Delete(ctx, adminPrincipal(), p.ID.Hex())
	require.NoError(t, err)
	assert.True(t, outcome.Failed())

	_, err = env.repo.FindByID(ctx, p.ID)
	assert.Error(t, err)
	env.store.AssertNumberOfCalls(t, "Destroy", 1)
}

func TestDelete_ReleasesCurrentImageAfterSwap(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	p := seedProduct(t, env.repo, "Camera", 0, strPtr("abc123"))

	env.store.On("Destroy", mock.Anything, "abc123").Return(nil).Once()
	env.store.On("Destroy", mock.Anything, "xyz789").Return(nil).Once()

	_, err := env.catalog.Update(ctx, adminPrincipal(), p.ID.Hex(), models.ProductUpdate{
		Image:      strPtr("https://cdn/xyz789.jpg"),
		ExternalID: strPtr("xyz789"),
	}, nil)
	require.NoError(t, err)

	outcome, err := env.catalog.Delete(ctx, adminPrincipal(), p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "xyz789", outcome.ExternalID)

	env.store.AssertExpectations(t)
	env.store.AssertNumberOfCalls(t, "Destroy", 2)
}

func TestDelete_WithoutRemoteImage(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	p := seedProduct(t, env.repo, "Camera", 0, nil)

	outcome, err := env.catalog.Delete(ctx, adminPrincipal(), p.ID.Hex())
	require.NoError(t, err)
	assert.False(t, outcome.Attempted)
	env.store.AssertNotCalled(t, "Destroy", mock.Anything, mock.Anything)

	_, err = env.catalog.Delete(ctx, adminPrincipal(), p.ID.Hex())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = env.catalog.Delete(ctx, adminPrincipal(), "bad-id")
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)
}

func TestStats(t *testing.T) {
	env := newTestEnv(8)
	ctx := context.Background()
	seedProduct(t, env.repo, "Camera", 0, nil)
	seedProduct(t, env.repo, "Lens", 0, nil)

	stats, err := env.catalog.Stats(ctx, adminPrincipal())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)

	_, err = env.catalog.Stats(ctx, customer("Bob"))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
