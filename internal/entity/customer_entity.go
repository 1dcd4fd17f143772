package entity

// Customer links provider payments to an application user. Uid is the
// application user id; purchases made before registration are held under a
// placeholder uid until the real uid shows up in a later event.
type Customer struct {
	Id             uint
	Uid            string
	AdditionalData map[string]interface{}

	// Relations
	Subscriptions []*Subscription
}

// PlaceholderUid derives the pre-registration uid for an email address.
func PlaceholderUid(email string) string {
	return "no-uid_" + email
}

// IsPlaceholder reports whether the customer has not been claimed by a real
// user yet.
func (c *Customer) IsPlaceholder() bool {
	return len(c.Uid) > 7 && c.Uid[:7] == "no-uid_"
}
