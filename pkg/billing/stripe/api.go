package stripe

import (
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/charge"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/promotioncode"
	"github.com/stripe/stripe-go/v82/subscription"
)

// API is the narrow read surface used to enrich webhook payloads. Every call
// is an idempotent read, so results are cached briefly.
type API interface {
	GetInvoice(id string) (*InvoiceInfo, error)
	GetSubscriptionPeriodEnd(id string) (time.Time, error)
	GetPromotionCode(id string) (string, error)
	GetCharge(id string) (*ChargeInfo, error)
}

// InvoiceInfo is the slice of an invoice the adapter cares about.
type InvoiceInfo struct {
	Number          string
	SubscriptionID  string
	PromotionCodeID string
}

// ChargeInfo carries the charge fields used for enrichment.
type ChargeInfo struct {
	InvoiceID string
	FeeCents  int64
}

type liveAPI struct {
	cache *gocache.Cache
}

// NewAPI sets the global key and returns the live read client.
func NewAPI(apiKey string) API {
	stripe.Key = apiKey
	return &liveAPI{
		cache: gocache.New(2*time.Minute, 5*time.Minute),
	}
}

func (a *liveAPI) GetInvoice(id string) (*InvoiceInfo, error) {
	if cached, ok := a.cache.Get("invoice:" + id); ok {
		return cached.(*InvoiceInfo), nil
	}
	params := &stripe.InvoiceParams{}
	params.AddExpand("discounts")
	inv, err := invoice.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", id, err)
	}
	info := &InvoiceInfo{Number: inv.Number}
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && inv.Parent.SubscriptionDetails.Subscription != nil {
		info.SubscriptionID = inv.Parent.SubscriptionDetails.Subscription.ID
	}
	for _, d := range inv.Discounts {
		if d != nil && d.PromotionCode != nil {
			info.PromotionCodeID = d.PromotionCode.ID
			break
		}
	}
	a.cache.SetDefault("invoice:"+id, info)
	return info, nil
}

func (a *liveAPI) GetSubscriptionPeriodEnd(id string) (time.Time, error) {
	if cached, ok := a.cache.Get("subperiod:" + id); ok {
		return cached.(time.Time), nil
	}
	sub, err := subscription.Get(id, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("get subscription %s: %w", id, err)
	}
	var end int64
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item.CurrentPeriodEnd > end {
				end = item.CurrentPeriodEnd
			}
		}
	}
	if end == 0 {
		return time.Time{}, fmt.Errorf("subscription %s has no billing period", id)
	}
	t := time.Unix(end, 0).UTC()
	a.cache.SetDefault("subperiod:"+id, t)
	return t, nil
}

func (a *liveAPI) GetPromotionCode(id string) (string, error) {
	if cached, ok := a.cache.Get("promo:" + id); ok {
		return cached.(string), nil
	}
	pc, err := promotioncode.Get(id, nil)
	if err != nil {
		return "", fmt.Errorf("get promotion code %s: %w", id, err)
	}
	a.cache.SetDefault("promo:"+id, pc.Code)
	return pc.Code, nil
}

func (a *liveAPI) GetCharge(id string) (*ChargeInfo, error) {
	if cached, ok := a.cache.Get("charge:" + id); ok {
		return cached.(*ChargeInfo), nil
	}
	params := &stripe.ChargeParams{}
	params.AddExpand("balance_transaction")
	ch, err := charge.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get charge %s: %w", id, err)
	}
	info := &ChargeInfo{}
	if ch.BalanceTransaction != nil {
		info.FeeCents = ch.BalanceTransaction.Fee
	}
	// The invoice reference is read from the raw response so the field
	// survives API version renames.
	var raw chargePayload
	if err := json.Unmarshal(ch.LastResponse.RawJSON, &raw); err == nil {
		info.InvoiceID = raw.Invoice
	}
	a.cache.SetDefault("charge:"+id, info)
	return info, nil
}
