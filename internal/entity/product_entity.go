package entity

// Product is a sellable plan. ProductCode is the provider-agnostic id carried
// in checkout metadata; Options holds plan features consumed by callers of
// the status endpoint.
type Product struct {
	Id          uint
	ProductCode string
	Name        string
	Options     map[string]interface{}
}
