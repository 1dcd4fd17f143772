package service

import "errors"

var (
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrProviderNotFound     = errors.New("payment provider not found")

	// ErrNoDefaultProvider means the provider table has no default row. This
	// is a deployment misconfiguration, not a retriable condition.
	ErrNoDefaultProvider = errors.New("no default payment provider configured")
)
