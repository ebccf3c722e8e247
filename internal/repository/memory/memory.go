// Package memory is an in-process implementation of the repositories. It
// backs STORE_DRIVER=memory for local development and the service tests.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"everesthemp-backend/internal/domain"
	"everesthemp-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB holds every collection behind one lock. Records are stored by value
// and copied on the way in and out, like documents.
type DB struct {
	mu         sync.RWMutex
	now        func() time.Time
	products   []domain.Product
	categories []domain.Category
	users      []domain.User
	orders     []domain.Order
	wishlists  map[primitive.ObjectID][]primitive.ObjectID
}

func New() *DB {
	return &DB{now: time.Now, wishlists: map[primitive.ObjectID][]primitive.ObjectID{}}
}

// SetClock replaces the time source used for timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

func (db *DB) Store() repository.Store {
	noop := func(context.Context) error { return nil }
	return repository.Store{
		Products:   (*productRepo)(db),
		Categories: (*categoryRepo)(db),
		Users:      (*userRepo)(db),
		Orders:     (*orderRepo)(db),
		Wishlists:  (*wishlistRepo)(db),
		Analytics:  (*analyticsRepo)(db),
		Ping:       noop,
		Close:      noop,
	}
}

func notFound(op string) error {
	return domain.Errorf(domain.ErrNotFound, "%s", op)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneProduct(p domain.Product) domain.Product {
	p.Images = cloneStrings(p.Images)
	p.Colors = cloneStrings(p.Colors)
	p.Sizes = cloneStrings(p.Sizes)
	p.Features = cloneStrings(p.Features)
	p.Care = cloneStrings(p.Care)
	return p
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		o.DeliveredAt = &t
	}
	return o
}

// ---- products ----

type productRepo DB

func (r *productRepo) db() *DB { return (*DB)(r) }

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matches(p *domain.Product, f domain.ProductFilter) bool {
	if p.Archived {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Collection != "" && string(p.Collection) != f.Collection {
		return false
	}
	if f.Search != "" && !containsFold(p.Name, f.Search) &&
		!containsFold(p.Category, f.Search) && !containsFold(string(p.Collection), f.Search) {
		return false
	}
	return true
}

func (r *productRepo) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := []domain.Product{}
	for i := range db.products {
		if matches(&db.products[i], f) {
			out = append(out, cloneProduct(db.products[i]))
		}
	}
	switch f.Sort {
	case domain.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case domain.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case domain.SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if f.Limit > 0 {
		skip := min(f.Skip(), len(out))
		end := min(skip+f.Limit, len(out))
		out = out[skip:end]
	}
	return out, nil
}

func (r *productRepo) find(id primitive.ObjectID) int {
	for i := range r.products {
		if r.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *productRepo) FindByID(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	i := r.find(id)
	if i < 0 || r.products[i].Archived {
		return nil, notFound("find product")
	}
	p := cloneProduct(r.products[i])
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Product, error) {
	out := []domain.Product{}
	for _, id := range ids {
		p, err := r.FindByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *productRepo) Create(_ context.Context, p *domain.Product) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := db.now()
	p.CreatedAt, p.UpdatedAt = now, now
	db.products = append(db.products, cloneProduct(*p))
	return nil
}

func (r *productRepo) Update(_ context.Context, p *domain.Product) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	i := r.find(p.ID)
	if i < 0 || r.products[i].Archived {
		return notFound("update product")
	}
	p.UpdatedAt = db.now()
	db.products[i] = cloneProduct(*p)
	return nil
}

func (r *productRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	i := r.find(id)
	if i < 0 {
		return notFound("delete product")
	}
	db.products = append(db.products[:i], db.products[i+1:]...)
	return nil
}

func (r *productRepo) Archive(_ context.Context, id primitive.ObjectID) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	i := r.find(id)
	if i < 0 {
		return notFound("archive product")
	}
	db.products[i].Archived = true
	db.products[i].InStock = false
	db.products[i].UpdatedAt = db.now()
	return nil
}

func (r *productRepo) ReserveStock(_ context.Context, id primitive.ObjectID, qty int) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	i := r.find(id)
	if i < 0 || !db.products[i].TrackInventory || db.products[i].Stock < qty {
		return domain.Errorf(domain.ErrConflict, "insufficient stock for product %s", id.Hex())
	}
	db.products[i].Stock -= qty
	db.products[i].InStock = db.products[i].Stock > 0
	return nil
}

func (r *productRepo) ReleaseStock(_ context.Context, id primitive.ObjectID, qty int) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	if i := r.find(id); i >= 0 && db.products[i].TrackInventory {
		db.products[i].Stock += qty
		db.products[i].InStock = true
	}
	return nil
}

func (r *productRepo) Count(_ context.Context) (int64, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int64
	for _, p := range db.products {
		if !p.Archived {
			n++
		}
	}
	return n, nil
}

// ---- categories ----

type categoryRepo DB

func (r *categoryRepo) db() *DB { return (*DB)(r) }

func (r *categoryRepo) find(id primitive.ObjectID) int {
	for i := range r.categories {
		if r.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *categoryRepo) nameTaken(name string, except primitive.ObjectID) bool {
	for _, c := range r.categories {
		if c.Name == name && c.ID != except {
			return true
		}
	}
	return false
}

func (r *categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := append([]domain.Category{}, db.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categoryRepo) FindByID(_ context.Context, id primitive.ObjectID) (*domain.Category, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	i := r.find(id)
	if i < 0 {
		return nil, notFound("find category")
	}
	c := db.categories[i]
	return &c, nil
}

func (r *categoryRepo) Create(_ context.Context, c *domain.Category) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	if r.nameTaken(c.Name, primitive.NilObjectID) {
		return domain.Errorf(domain.ErrConflict, "create category: duplicate key")
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	db.categories = append(db.categories, *c)
	return nil
}

func (r *categoryRepo) Update(_ context.Context, c *domain.Category) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	i := r.find(c.ID)
	if i < 0 {
		return notFound("update category")
	}
	if r.nameTaken(c.Name, c.ID) {
		return domain.Errorf(domain.ErrConflict, "update category: duplicate key")
	}
	db.categories[i] = *c
	return nil
}

func (r *categoryRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	i := r.find(id)
	if i < 0 {
		return notFound("delete category")
	}
	db.categories = append(db.categories[:i], db.categories[i+1:]...)
	return nil
}

func (r *categoryRepo) Count(_ context.Context) (int64, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()
	return int64(len(db.categories)), nil
}

// ---- users ----

type userRepo DB

func (r *userRepo) db() *DB { return (*DB)(r) }

func (r *userRepo) find(match func(*domain.User) bool) int {
	for i := range r.users {
		if match(&r.users[i]) {
			return i
		}
	}
	return -1
}

func (r *userRepo) emailTaken(email string, except primitive.ObjectID) bool {
	return r.find(func(u *domain.User) bool { return u.Email == email && u.ID != except }) >= 0
}

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	u.Email = domain.NormalizeEmail(u.Email)
	if r.emailTaken(u.Email, primitive.NilObjectID) {
		return domain.Errorf(domain.ErrConflict, "create user: duplicate key")
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := db.now()
	u.CreatedAt, u.UpdatedAt = now, now
	db.users = append(db.users, *u)
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	i := r.find(func(u *domain.User) bool { return u.ID == id })
	if i < 0 {
		return nil, notFound("find user")
	}
	u := db.users[i]
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	email = domain.NormalizeEmail(email)
	i := r.find(func(u *domain.User) bool { return u.Email == email })
	if i < 0 {
		return nil, notFound("find user by email")
	}
	u := db.users[i]
	return &u, nil
}

func (r *userRepo) Update(_ context.Context, u *domain.User) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	i := r.find(func(x *domain.User) bool { return x.ID == u.ID })
	if i < 0 {
		return notFound("update user")
	}
	if r.emailTaken(u.Email, u.ID) {
		return domain.Errorf(domain.ErrConflict, "update user: duplicate key")
	}
	u.UpdatedAt = db.now()
	db.users[i] = *u
	return nil
}

func (r *userRepo) List(_ context.Context, role domain.Role) ([]domain.User, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := []domain.User{}
	for i := len(db.users) - 1; i >= 0; i-- {
		if role == "" || db.users[i].Role == role {
			out = append(out, db.users[i])
		}
	}
	return out, nil
}

func (r *userRepo) Count(_ context.Context) (int64, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()
	return int64(len(db.users)), nil
}

func (r *userRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int64
	for _, u := range db.users {
		if u.Role == domain.RoleCustomer && !u.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ---- orders ----

type orderRepo DB

func (r *orderRepo) db() *DB { return (*DB)(r) }

func (r *orderRepo) find(match func(*domain.Order) bool) int {
	for i := range r.orders {
		if match(&r.orders[i]) {
			return i
		}
	}
	return -1
}

func (r *orderRepo) Create(_ context.Context, o *domain.Order) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	if o.IdempotencyKey != "" && r.find(func(x *domain.Order) bool {
		return x.User == o.User && x.IdempotencyKey == o.IdempotencyKey
	}) >= 0 {
		return domain.Errorf(domain.ErrConflict, "create order: duplicate key")
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	now := db.now()
	o.CreatedAt, o.UpdatedAt = now, now
	db.orders = append(db.orders, cloneOrder(*o))
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*domain.Order, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	i := r.find(func(o *domain.Order) bool { return o.ID == id })
	if i < 0 {
		return nil, notFound("find order")
	}
	o := cloneOrder(db.orders[i])
	return &o, nil
}

func (r *orderRepo) FindByIdempotencyKey(_ context.Context, user primitive.ObjectID, key string) (*domain.Order, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	i := r.find(func(o *domain.Order) bool { return o.User == user && o.IdempotencyKey == key })
	if i < 0 {
		return nil, notFound("find order by idempotency key")
	}
	o := cloneOrder(db.orders[i])
	return &o, nil
}

func (r *orderRepo) newestFirst(keep func(*domain.Order) bool) []domain.Order {
	out := []domain.Order{}
	for i := range r.orders {
		if keep(&r.orders[i]) {
			out = append(out, cloneOrder(r.orders[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *orderRepo) List(_ context.Context) ([]domain.Order, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()
	return r.newestFirst(func(*domain.Order) bool { return true }), nil
}

func (r *orderRepo) ListByUser(_ context.Context, user primitive.ObjectID) ([]domain.Order, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()
	return r.newestFirst(func(o *domain.Order) bool { return o.User == user }), nil
}

// Update copies only the admin-editable fields, matching the mongo store.
func (r *orderRepo) Update(_ context.Context, o *domain.Order) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	i := r.find(func(x *domain.Order) bool { return x.ID == o.ID })
	if i < 0 {
		return notFound("update order")
	}
	stored := &db.orders[i]
	stored.PaymentStatus = o.PaymentStatus
	stored.ShippingStatus = o.ShippingStatus
	stored.TrackingNumber = o.TrackingNumber
	stored.PaymentReference = o.PaymentReference
	stored.UpdatedAt = o.UpdatedAt
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		stored.DeliveredAt = &t
	}
	return nil
}

func (r *orderRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	i := r.find(func(o *domain.Order) bool { return o.ID == id })
	if i < 0 {
		return notFound("delete order")
	}
	db.orders = append(db.orders[:i], db.orders[i+1:]...)
	return nil
}

func (r *orderRepo) ReferencesProduct(_ context.Context, product primitive.ObjectID) (bool, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	return r.find(func(o *domain.Order) bool {
		for _, it := range o.Items {
			if it.Product == product {
				return true
			}
		}
		return false
	}) >= 0, nil
}

// ---- wishlists ----

type wishlistRepo DB

func (r *wishlistRepo) db() *DB { return (*DB)(r) }

func (r *wishlistRepo) Get(_ context.Context, user primitive.ObjectID) (*domain.Wishlist, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	products := append([]primitive.ObjectID{}, db.wishlists[user]...)
	return &domain.Wishlist{User: user, Products: products}, nil
}

func (r *wishlistRepo) Add(_ context.Context, user, product primitive.ObjectID) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, p := range db.wishlists[user] {
		if p == product {
			return nil
		}
	}
	db.wishlists[user] = append(db.wishlists[user], product)
	return nil
}

func (r *wishlistRepo) Remove(_ context.Context, user, product primitive.ObjectID) error {
	db := r.db()
	db.mu.Lock()
	defer db.mu.Unlock()

	list := db.wishlists[user]
	for i, p := range list {
		if p == product {
			db.wishlists[user] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

// ---- analytics ----

type analyticsRepo DB

func (r *analyticsRepo) db() *DB { return (*DB)(r) }

func (r *analyticsRepo) CountOrders(_ context.Context) (int64, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()
	return int64(len(db.orders)), nil
}

func (r *analyticsRepo) TotalSales(_ context.Context) (int64, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	var sum int64
	for _, o := range db.orders {
		sum += o.Total
	}
	return sum, nil
}

func (r *analyticsRepo) TopProducts(_ context.Context, limit int) ([]domain.TopProduct, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	byProduct := map[primitive.ObjectID]*domain.TopProduct{}
	for _, o := range db.orders {
		for _, it := range o.Items {
			tp, ok := byProduct[it.Product]
			if !ok {
				tp = &domain.TopProduct{Product: it.Product, Name: it.Name}
				byProduct[it.Product] = tp
			}
			tp.Sales += int64(it.Quantity)
			tp.Revenue += int64(it.Quantity) * it.Price
		}
	}

	out := make([]domain.TopProduct, 0, len(byProduct))
	for _, tp := range byProduct {
		out = append(out, *tp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sales != out[j].Sales {
			return out[i].Sales > out[j].Sales
		}
		return bytes.Compare(out[i].Product[:], out[j].Product[:]) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *analyticsRepo) RecentOrders(_ context.Context, limit int) ([]domain.RecentOrder, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	orders := (*orderRepo)(db).newestFirst(func(*domain.Order) bool { return true })
	if len(orders) > limit {
		orders = orders[:limit]
	}
	users := (*userRepo)(db)
	out := make([]domain.RecentOrder, 0, len(orders))
	for _, o := range orders {
		ro := domain.RecentOrder{
			ID:             o.ID,
			Total:          o.Total,
			PaymentStatus:  o.PaymentStatus,
			ShippingStatus: o.ShippingStatus,
			CreatedAt:      o.CreatedAt,
		}
		if i := users.find(func(u *domain.User) bool { return u.ID == o.User }); i >= 0 {
			ro.UserName = db.users[i].Name
			ro.UserEmail = db.users[i].Email
		}
		out = append(out, ro)
	}
	return out, nil
}

func (r *analyticsRepo) OrdersSince(_ context.Context, since time.Time) (domain.OrderWindow, error) {
	db := r.db()
	db.mu.RLock()
	defer db.mu.RUnlock()

	var w domain.OrderWindow
	for _, o := range db.orders {
		if !o.CreatedAt.Before(since) {
			w.Count++
			w.Revenue += o.Total
		}
	}
	return w, nil
}
