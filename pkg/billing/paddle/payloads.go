package paddle

import (
	"encoding/json"
	"time"
)

type webhookEnvelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type transactionPayload struct {
	ID             string            `json:"id"`
	SubscriptionID string            `json:"subscription_id"`
	InvoiceNumber  string            `json:"invoice_number"`
	DiscountID     string            `json:"discount_id"`
	CurrencyCode   string            `json:"currency_code"`
	CustomData     map[string]string `json:"custom_data"`
	BillingPeriod  struct {
		EndsAt time.Time `json:"ends_at"`
	} `json:"billing_period"`
	Details struct {
		Totals struct {
			Total string `json:"total"`
		} `json:"totals"`
	} `json:"details"`
	Items []struct {
		Price struct {
			ProductID string `json:"product_id"`
		} `json:"price"`
	} `json:"items"`
}

type subscriptionNotification struct {
	ID                   string            `json:"id"`
	Status               string            `json:"status"`
	CustomData           map[string]string `json:"custom_data"`
	CurrentBillingPeriod struct {
		EndsAt time.Time `json:"ends_at"`
	} `json:"current_billing_period"`
	ScheduledChange *struct {
		Action string `json:"action"`
	} `json:"scheduled_change"`
	Items []struct {
		Price struct {
			ProductID string `json:"product_id"`
		} `json:"price"`
	} `json:"items"`
}

type adjustmentPayload struct {
	ID             string `json:"id"`
	Action         string `json:"action"`
	Status         string `json:"status"`
	Reason         string `json:"reason"`
	TransactionID  string `json:"transaction_id"`
	SubscriptionID string `json:"subscription_id"`
	CurrencyCode   string `json:"currency_code"`
	Totals         struct {
		Total string `json:"total"`
	} `json:"totals"`
}
