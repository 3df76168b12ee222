package services

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-backend/logger"
	"catalog-backend/media"
	"catalog-backend/models"
	"catalog-backend/repository"
)

// --- Mock media store ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Sign(params url.Values) (string, error) {
	args := m.Called(params)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Upload(ctx context.Context, input *media.UploadInput) (*media.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.UploadResult), args.Error(1)
}

func (m *mockStore) Destroy(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

func (m *mockStore) Credentials() media.Credentials {
	args := m.Called()
	return args.Get(0).(media.Credentials)
}

// --- Test helpers ---

type testEnv struct {
	repo    *repository.MemoryProductRepository
	store   *mockStore
	images  *ImageManager
	catalog *CatalogService
	reviews *ReviewAggregator
}

func newTestEnv(pageSize int) *testEnv {
	repo := repository.NewMemoryProductRepository()
	store := new(mockStore)
	l := logger.Discard()
	images := NewImageManager(repo, store, l)
	return &testEnv{
		repo:   repo,
		store:  store,
		images: images,
		catalog: NewCatalogService(repo, images, store, CatalogConfig{
			PageSize:       pageSize,
			TopRatedLimit:  3,
			DefaultImage:   "/images/sample.jpg",
			UploadFolder:   "products",
			MaxUploadBytes: 1 << 20,
		}, l),
		reviews: NewReviewAggregator(repo, l),
	}
}

func adminPrincipal() *models.Principal {
	return &models.Principal{UserID: primitive.NewObjectID(), Name: "Admin User", IsAdmin: true}
}

func customer(name string) *models.Principal {
	return &models.Principal{UserID: primitive.NewObjectID(), Name: name}
}

func strPtr(s string) *string { return &s }

// seedProduct stores a product directly through the repository.
func seedProduct(t *testing.T, repo repository.ProductRepository, name string, rating float64, externalID *string) *models.Product {
	t.Helper()
	p := &models.Product{
		User:       primitive.NewObjectID(),
		Name:       name,
		Image:      "https://res.cloudinary.com/demo/image/upload/" + name + ".jpg",
		ExternalID: externalID,
		Rating:     rating,
		Price:      10,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
