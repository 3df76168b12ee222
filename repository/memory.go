package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog-backend/models"
)

// MemoryProductRepository implements ProductRepository in process memory.
// Insertion order is kept so listings follow natural storage order.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]*models.Product
	order    []primitive.ObjectID
}

// NewMemoryProductRepository creates an empty in-memory product store.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[primitive.ObjectID]*models.Product),
	}
}

func (r *MemoryProductRepository) Find(_ context.Context, q Query) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		p := r.products[id]
		if matches(p, q.Filter) {
			matched = append(matched, cloneProduct(p))
		}
	}

	if q.SortByRating {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Rating > matched[j].Rating
		})
	}

	if q.Skip > 0 {
		if q.Skip >= int64(len(matched)) {
			return []models.Product{}, nil
		}
		matched = matched[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < int64(len(matched)) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (r *MemoryProductRepository) Count(_ context.Context, f Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if matches(p, f) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *MemoryProductRepository) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Version = 1
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}

	stored := cloneProduct(p)
	r.products[p.ID] = &stored
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemoryProductRepository) Save(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != p.Version {
		return ErrVersionConflict
	}

	p.Version++
	p.UpdatedAt = time.Now().UTC()
	stored := cloneProduct(p)
	r.products[p.ID] = &stored
	return nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	removed := cloneProduct(p)
	delete(r.products, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return &removed, nil
}

func (r *MemoryProductRepository) Stats(_ context.Context) (*models.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &models.Stats{}
	for _, p := range r.products {
		stats.TotalProducts++
		stats.TotalReviews += int64(p.NumReviews)
		stats.TotalValue += p.Price * float64(p.CountInStock)
	}
	return stats, nil
}

func (r *MemoryProductRepository) Ping(context.Context) error {
	return nil
}

func matches(p *models.Product, f Filter) bool {
	if f.Keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Keyword))
}

// cloneProduct copies p so callers never share slices or pointers with the store.
func cloneProduct(p *models.Product) models.Product {
	out := *p
	if p.ExternalID != nil {
		id := *p.ExternalID
		out.ExternalID = &id
	}
	out.Reviews = make([]models.Review, len(p.Reviews))
	copy(out.Reviews, p.Reviews)
	return out
}

// MemoryUserRepository implements UserRepository in process memory.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[primitive.ObjectID]*models.User
	byEmail map[string]primitive.ObjectID
}

// NewMemoryUserRepository creates an empty in-memory user store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[primitive.ObjectID]*models.User),
		byEmail: make(map[string]primitive.ObjectID),
	}
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := *r.users[id]
	return &u, nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := r.byEmail[email]; exists {
		return ErrDuplicateEmail
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Email = email

	stored := *u
	r.users[u.ID] = &stored
	r.byEmail[email] = u.ID
	return nil
}
