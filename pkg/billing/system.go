package billing

import "context"

// SystemKind tags the two supported payment integrations.
type SystemKind string

const (
	SystemCard    SystemKind = "card"
	SystemCatalog SystemKind = "catalog"
)

// Adapter verifies a raw webhook delivery and translates it into a
// NormalizedEvent. Implementations are pure translation; the only network
// calls allowed are idempotent enrichment reads.
type Adapter interface {
	ProviderName() string
	VerifyAndNormalize(ctx context.Context, eventTypeHint string, payload []byte, signature string) (*NormalizedEvent, error)
}

// System is the tagged variant resolved from the default provider row. New
// checkouts route to System.Adapter; webhook routes bind their adapter
// statically per endpoint.
type System struct {
	Kind    SystemKind
	Adapter Adapter
}
