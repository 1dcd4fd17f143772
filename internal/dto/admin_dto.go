package dto

import "time"

// --- Admin ---

type AdminSubscriptionInfo struct {
	Id             uint       `json:"id"`
	ProductCode    string     `json:"product_code"`
	ProductName    string     `json:"product_name"`
	Provider       string     `json:"provider"`
	SubscriptionId string     `json:"subscription_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	NextBillingAt  *time.Time `json:"next_billing_at,omitempty"`
	IsCanceled     *bool      `json:"is_canceled,omitempty"`
	Active         bool       `json:"active"`
}

type AdminUserInfoResponse struct {
	Uid            string                  `json:"uid"`
	AdditionalData map[string]interface{}  `json:"additional_data,omitempty"`
	Subscriptions  []AdminSubscriptionInfo `json:"subscriptions"`
}

type SetDefaultProviderRequest struct {
	Provider string `json:"provider" validate:"required,oneof=stripe paddle"`
}

type DefaultProviderResponse struct {
	Provider  string `json:"provider"`
	IsDefault bool   `json:"is_default"`
}
