package entity

// ProviderName identifies a payment integration.
type ProviderName string

const (
	ProviderStripe ProviderName = "stripe"
	ProviderPaddle ProviderName = "paddle"
)

// PaymentProvider is a configured payment integration. Exactly one row
// carries the default flag; new checkouts route through it.
type PaymentProvider struct {
	Id        uint
	Name      ProviderName
	IsDefault bool
}
