package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsActive(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"future billing date", Subscription{SubscriptionId: "sub_1", NextBillingAt: &future}, true},
		{"past billing date", Subscription{SubscriptionId: "sub_1", NextBillingAt: &past}, false},
		{"exactly now", Subscription{SubscriptionId: "sub_1", NextBillingAt: &now}, false},
		{"no billing date", Subscription{SubscriptionId: "sub_1"}, false},
		{"one-time purchase", Subscription{NextBillingAt: &future}, false},
		{"canceled but not expired", Subscription{SubscriptionId: "sub_1", NextBillingAt: &future, IsCanceled: boolPtr(true)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsActive(now))
		})
	}
}

func TestSubscriptionCanceled(t *testing.T) {
	assert.False(t, (&Subscription{}).Canceled())
	assert.False(t, (&Subscription{IsCanceled: boolPtr(false)}).Canceled())
	assert.True(t, (&Subscription{IsCanceled: boolPtr(true)}).Canceled())
}

func TestHashPayloadIsByteSensitive(t *testing.T) {
	a := HashPayload([]byte(`{"id":1}`))
	b := HashPayload([]byte(`{"id": 1}`))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashPayload([]byte(`{"id":1}`)))
	assert.Len(t, a, 64)
}

func TestPlaceholderUid(t *testing.T) {
	c := Customer{Uid: PlaceholderUid("a@example.com")}
	assert.Equal(t, "no-uid_a@example.com", c.Uid)
	assert.True(t, c.IsPlaceholder())
	assert.False(t, (&Customer{Uid: "user_1"}).IsPlaceholder())
}

func boolPtr(b bool) *bool { return &b }
