package billing

import "errors"

var (
	// ErrVerification covers a missing payload, missing signature header, or
	// a signature mismatch. Handling must stop before any state mutation.
	ErrVerification = errors.New("webhook verification failed")

	// ErrUnsupportedEvent marks a provider event type without mapped handling.
	ErrUnsupportedEvent = errors.New("unsupported provider event")

	// ErrProductNotInCatalog means a fresh catalog fetch still does not carry
	// the requested product code.
	ErrProductNotInCatalog = errors.New("product not configured in provider catalog")
)
