package stripe

// Payload structs decoded from event.Data.Raw. Decoding into our own structs
// keeps the adapter stable across Stripe API version bumps; only the fields
// we read are declared.

type checkoutSessionPayload struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	ClientReferenceID string            `json:"client_reference_id"`
	CustomerEmail     string            `json:"customer_email"`
	CustomerDetails   struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Subscription string            `json:"subscription"`
	Invoice      string            `json:"invoice"`
	AmountTotal  int64             `json:"amount_total"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	TrialEnd          int64  `json:"trial_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID       string            `json:"id"`
				Product  string            `json:"product"`
				Metadata map[string]string `json:"metadata"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	CancellationDetails struct {
		Comment  string `json:"comment"`
		Feedback string `json:"feedback"`
	} `json:"cancellation_details"`
	Metadata map[string]string `json:"metadata"`
}

type invoicePayload struct {
	ID            string `json:"id"`
	Number        string `json:"number"`
	BillingReason string `json:"billing_reason"`
	Subscription  string `json:"subscription"`
	Parent        struct {
		SubscriptionDetails struct {
			Subscription string `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

// subscriptionID covers both the legacy top-level field and the current
// parent object, whichever the account's API version sends.
func (p invoicePayload) subscriptionID() string {
	if p.Subscription != "" {
		return p.Subscription
	}
	return p.Parent.SubscriptionDetails.Subscription
}

type chargePayload struct {
	ID             string `json:"id"`
	Invoice        string `json:"invoice"`
	AmountRefunded int64  `json:"amount_refunded"`
	Currency       string `json:"currency"`
	Refunds        struct {
		Data []refundPayload `json:"data"`
	} `json:"refunds"`
}

type refundPayload struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Reason   string            `json:"reason"`
	Charge   string            `json:"charge"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}
