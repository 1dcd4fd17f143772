package memory

import (
	"context"
	"fmt"
	"time"

	"subscription-billing-be/internal/entity"
	"subscription-billing-be/internal/repository/contract"
	"subscription-billing-be/internal/repository/specification"
)

// --- customers ---

type customerRepo struct {
	store *Store
}

func (r *customerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.customers {
		if c.Uid == customer.Uid {
			return contract.ErrDuplicate
		}
	}
	customer.Id = r.store.id()
	r.store.customers = append(r.store.customers, customer)
	return nil
}

func (r *customerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, c := range r.store.customers {
		if c.Id == customer.Id {
			r.store.customers[i] = customer
			return nil
		}
	}
	return nil
}

func (r *customerRepo) Delete(ctx context.Context, id uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	// Subscriptions hold a not-null foreign key on the customer row.
	for _, sub := range r.store.subscriptions {
		if sub.CustomerId == id {
			return fmt.Errorf("delete customer %d: subscription %d still references it", id, sub.Id)
		}
	}
	out := r.store.customers[:0]
	for _, c := range r.store.customers {
		if c.Id != id {
			out = append(out, c)
		}
	}
	r.store.customers = out
	return nil
}

func (r *customerRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.customers {
		if customerMatches(c, specs) {
			return c, nil
		}
	}
	return nil, nil
}

func (r *customerRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Customer
	for _, c := range r.store.customers {
		if customerMatches(c, specs) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *customerRepo) FindOneWithSubscriptions(ctx context.Context, specs ...specification.Specification) (*entity.Customer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range r.store.customers {
		if !customerMatches(c, specs) {
			continue
		}
		c.Subscriptions = nil
		for _, sub := range r.store.subscriptions {
			if sub.CustomerId == c.Id {
				r.store.attachRelations(sub)
				c.Subscriptions = append(c.Subscriptions, sub)
			}
		}
		return c, nil
	}
	return nil, nil
}

func customerMatches(c *entity.Customer, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByUid:
			if c.Uid != s.Uid {
				return false
			}
		case specification.ByID:
			if c.Id != s.ID {
				return false
			}
		}
	}
	return true
}

// --- providers ---

type providerRepo struct {
	store *Store
}

func (r *providerRepo) Create(ctx context.Context, provider *entity.PaymentProvider) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.providers {
		if p.Name == provider.Name {
			return contract.ErrDuplicate
		}
	}
	provider.Id = r.store.id()
	r.store.providers = append(r.store.providers, provider)
	return nil
}

func (r *providerRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaymentProvider, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.providers {
		if providerMatches(p, specs) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *providerRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentProvider, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.PaymentProvider
	for _, p := range r.store.providers {
		if providerMatches(p, specs) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *providerRepo) ClearDefaultExcept(ctx context.Context, id uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.providers {
		if p.Id != id {
			p.IsDefault = false
		}
	}
	return nil
}

func (r *providerRepo) MarkDefault(ctx context.Context, id uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.providers {
		if p.Id == id {
			p.IsDefault = true
			return nil
		}
	}
	return nil
}

func providerMatches(p *entity.PaymentProvider, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByProviderName:
			if string(p.Name) != s.Name {
				return false
			}
		case specification.DefaultProvider:
			if !p.IsDefault {
				return false
			}
		case specification.ByID:
			if p.Id != s.ID {
				return false
			}
		}
	}
	return true
}

// --- products ---

type productRepo struct {
	store *Store
}

func (r *productRepo) Create(ctx context.Context, product *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.products {
		if p.ProductCode == product.ProductCode {
			return contract.ErrDuplicate
		}
	}
	product.Id = r.store.id()
	r.store.products = append(r.store.products, product)
	return nil
}

func (r *productRepo) Update(ctx context.Context, product *entity.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, p := range r.store.products {
		if p.Id == product.Id {
			r.store.products[i] = product
		}
	}
	return nil
}

func (r *productRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.products {
		if productMatches(p, specs) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *productRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.store.products {
		if productMatches(p, specs) {
			out = append(out, p)
		}
	}
	return out, nil
}

func productMatches(p *entity.Product, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByProductCode:
			if p.ProductCode != s.Code {
				return false
			}
		case specification.ByID:
			if p.Id != s.ID {
				return false
			}
		}
	}
	return true
}

// --- subscriptions ---

type subscriptionRepo struct {
	store *Store
}

func (r *subscriptionRepo) Create(ctx context.Context, subscription *entity.Subscription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if subscription.SubscriptionId != "" {
		for _, sub := range r.store.subscriptions {
			if sub.PaymentProviderId == subscription.PaymentProviderId && sub.SubscriptionId == subscription.SubscriptionId {
				return contract.ErrDuplicate
			}
		}
	}
	subscription.Id = r.store.id()
	if subscription.CreatedAt.IsZero() {
		subscription.CreatedAt = time.Now()
	}
	r.store.attachRelations(subscription)
	r.store.subscriptions = append(r.store.subscriptions, subscription)
	return nil
}

func (r *subscriptionRepo) Update(ctx context.Context, subscription *entity.Subscription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, sub := range r.store.subscriptions {
		if sub.Id == subscription.Id {
			r.store.attachRelations(subscription)
			r.store.subscriptions[i] = subscription
		}
	}
	return nil
}

func (r *subscriptionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, sub := range r.store.subscriptions {
		if subscriptionMatches(sub, specs) {
			r.store.attachRelations(sub)
			return sub, nil
		}
	}
	return nil, nil
}

func (r *subscriptionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Subscription
	for _, sub := range r.store.subscriptions {
		if subscriptionMatches(sub, specs) {
			r.store.attachRelations(sub)
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *subscriptionRepo) SetCanceled(ctx context.Context, id uint, canceled bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, sub := range r.store.subscriptions {
		if sub.Id == id {
			v := canceled
			sub.IsCanceled = &v
		}
	}
	return nil
}

func (r *subscriptionRepo) SetNextBillingAt(ctx context.Context, id uint, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, sub := range r.store.subscriptions {
		if sub.Id == id {
			t := at
			sub.NextBillingAt = &t
		}
	}
	return nil
}

func (r *subscriptionRepo) Delete(ctx context.Context, id uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := r.store.subscriptions[:0]
	for _, sub := range r.store.subscriptions {
		if sub.Id != id {
			out = append(out, sub)
		}
	}
	r.store.subscriptions = out
	return nil
}

func subscriptionMatches(sub *entity.Subscription, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByProviderSubscription:
			if sub.PaymentProviderId != s.PaymentProviderId || sub.SubscriptionId != s.SubscriptionId {
				return false
			}
		case specification.OwnedBy:
			if sub.CustomerId != s.CustomerId {
				return false
			}
		case specification.ActiveAt:
			if !sub.IsActive(s.Now) {
				return false
			}
		case specification.ByID:
			if sub.Id != s.ID {
				return false
			}
		}
	}
	return true
}

// --- payment logs ---

type paymentLogRepo struct {
	store *Store
}

func (r *paymentLogRepo) Append(ctx context.Context, log *entity.PaymentLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if log.DataHash == "" {
		log.DataHash = entity.HashPayload(log.Data)
	}
	for _, l := range r.store.paymentLogs {
		if l.SubscriptionId == log.SubscriptionId && l.DataHash == log.DataHash {
			return contract.ErrDuplicate
		}
	}
	log.Id = r.store.id()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	r.store.paymentLogs = append(r.store.paymentLogs, log)
	return nil
}

func (r *paymentLogRepo) Exists(ctx context.Context, subscriptionId uint, dataHash string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.paymentLogs {
		if l.SubscriptionId == subscriptionId && l.DataHash == dataHash {
			return true, nil
		}
	}
	return false, nil
}

func (r *paymentLogRepo) DeleteForSubscription(ctx context.Context, subscriptionId uint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := r.store.paymentLogs[:0]
	for _, l := range r.store.paymentLogs {
		if l.SubscriptionId != subscriptionId {
			out = append(out, l)
		}
	}
	r.store.paymentLogs = out
	return nil
}

func (r *paymentLogRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.PaymentLog
	for _, l := range r.store.paymentLogs {
		match := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ByDataHash); ok {
				if l.SubscriptionId != s.SubscriptionId || l.DataHash != s.Hash {
					match = false
				}
			}
		}
		if match {
			out = append(out, l)
		}
	}
	return out, nil
}
