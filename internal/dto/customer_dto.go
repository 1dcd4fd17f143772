package dto

import "time"

// --- Customer Status ---

// CustomerStatusRequest resolves the caller's current plan. Uid may be empty
// for purchases made before registration; the email then selects the
// placeholder customer.
type CustomerStatusRequest struct {
	Uid   string `json:"uid"`
	Email string `json:"email" validate:"required,email"`
}

type CustomerStatusResponse struct {
	Uid            string                 `json:"uid"`
	Active         bool                   `json:"active"`
	ProductCode    string                 `json:"product_code,omitempty"`
	ProductName    string                 `json:"product_name,omitempty"`
	ProductOptions map[string]interface{} `json:"product_options,omitempty"`
	SubscriptionId string                 `json:"subscription_id,omitempty"`
	NextBillingAt  *time.Time             `json:"next_billing_at,omitempty"`
	IsCanceled     bool                   `json:"is_canceled"`
}
