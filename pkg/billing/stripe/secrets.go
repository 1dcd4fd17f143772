package stripe

import (
	"fmt"

	"subscription-billing-be/pkg/billing"
)

// Secrets holds the webhook signing secrets, one per subscribed event type.
// Outside production a single shared test secret is accepted for every event
// type so recorded fixtures can be replayed.
type Secrets struct {
	PerEvent   map[string]string
	TestSecret string
	Production bool
}

// For returns the signing secret to verify a delivery of the given event
// type. Missing configuration fails closed.
func (s Secrets) For(eventType string) (string, error) {
	if !s.Production && s.TestSecret != "" {
		return s.TestSecret, nil
	}
	secret, ok := s.PerEvent[eventType]
	if !ok || secret == "" {
		return "", fmt.Errorf("%w: no webhook secret for event type %s", billing.ErrVerification, eventType)
	}
	return secret, nil
}
