package memory

import (
	"context"
	"sync"
	"time"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/repository/contract"
	"subscription-billing-be/internal/repository/unitofwork"
)

// Store is an in-memory implementation of the repository layer. It interprets
// the same specification types the gorm implementations translate to SQL,
// including the unique indexes that back concurrency guarantees. Used by
// service tests and local tooling that should not need Postgres.
type Store struct {
	mu sync.Mutex

	customers     []*entity.Customer
	providers     []*entity.PaymentProvider
	products      []*entity.Product
	subscriptions []*entity.Subscription
	paymentLogs   []*entity.PaymentLog

	nextID uint
}

func NewStore() *Store {
	return &Store{nextID: 1}
}

func (s *Store) id() uint {
	id := s.nextID
	s.nextID++
	return id
}

// NewUnitOfWork implements unitofwork.RepositoryFactory. Transactions are
// degenerate: every write is immediately visible.
func (s *Store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{store: s}
}

type memUow struct {
	store *Store
}

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error                   { return nil }
func (u *memUow) Rollback() error                 { return nil }

func (u *memUow) CustomerRepository() contract.CustomerRepository {
	return &customerRepo{store: u.store}
}

func (u *memUow) ProductRepository() contract.ProductRepository {
	return &productRepo{store: u.store}
}

func (u *memUow) PaymentProviderRepository() contract.PaymentProviderRepository {
	return &providerRepo{store: u.store}
}

func (u *memUow) SubscriptionRepository() contract.SubscriptionRepository {
	return &subscriptionRepo{store: u.store}
}

func (u *memUow) PaymentLogRepository() contract.PaymentLogRepository {
	return &paymentLogRepo{store: u.store}
}

// --- seeding helpers ---

// SeedProvider inserts a provider and returns it.
func (s *Store) SeedProvider(name entity.ProviderName, isDefault bool) *entity.PaymentProvider {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &entity.PaymentProvider{Id: s.id(), Name: name, IsDefault: isDefault}
	s.providers = append(s.providers, p)
	return p
}

// SeedProduct inserts a product and returns it.
func (s *Store) SeedProduct(code, name string) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &entity.Product{Id: s.id(), ProductCode: code, Name: name}
	s.products = append(s.products, p)
	return p
}

// SeedCustomer inserts a customer and returns it.
func (s *Store) SeedCustomer(uid string) *entity.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &entity.Customer{Id: s.id(), Uid: uid}
	s.customers = append(s.customers, c)
	return c
}

// SeedSubscription inserts a subscription row with relations resolved.
func (s *Store) SeedSubscription(sub *entity.Subscription) *entity.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.Id = s.id()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	s.attachRelations(sub)
	s.subscriptions = append(s.subscriptions, sub)
	return sub
}

// Subscription returns the stored row by id, or nil.
func (s *Store) Subscription(id uint) *entity.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscriptions {
		if sub.Id == id {
			return sub
		}
	}
	return nil
}

// PaymentLogCount reports the number of stored payment logs.
func (s *Store) PaymentLogCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paymentLogs)
}

// Customers returns all stored customers.
func (s *Store) Customers() []*entity.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Customer, len(s.customers))
	copy(out, s.customers)
	return out
}

func (s *Store) attachRelations(sub *entity.Subscription) {
	for _, c := range s.customers {
		if c.Id == sub.CustomerId {
			sub.Customer = c
		}
	}
	for _, p := range s.products {
		if p.Id == sub.ProductId {
			sub.Product = p
		}
	}
	for _, p := range s.providers {
		if p.Id == sub.PaymentProviderId {
			sub.PaymentProvider = p
		}
	}
}
