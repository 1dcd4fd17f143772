package stripe

import (
	"testing"

	"subscription-billing-be/pkg/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretsFor(t *testing.T) {
	perEvent := map[string]string{
		"checkout.session.completed": "whsec_checkout",
		"invoice.paid":               "whsec_invoice",
	}

	tests := []struct {
		name      string
		secrets   Secrets
		eventType string
		want      string
		wantErr   bool
	}{
		{
			name:      "production uses per-event secret",
			secrets:   Secrets{PerEvent: perEvent, TestSecret: "whsec_test", Production: true},
			eventType: "checkout.session.completed",
			want:      "whsec_checkout",
		},
		{
			name:      "production rejects unknown event type",
			secrets:   Secrets{PerEvent: perEvent, Production: true},
			eventType: "charge.refunded",
			wantErr:   true,
		},
		{
			name:      "production ignores test secret",
			secrets:   Secrets{PerEvent: map[string]string{}, TestSecret: "whsec_test", Production: true},
			eventType: "invoice.paid",
			wantErr:   true,
		},
		{
			name:      "development prefers test secret",
			secrets:   Secrets{PerEvent: perEvent, TestSecret: "whsec_test"},
			eventType: "checkout.session.completed",
			want:      "whsec_test",
		},
		{
			name:      "development without test secret falls back to per-event",
			secrets:   Secrets{PerEvent: perEvent},
			eventType: "invoice.paid",
			want:      "whsec_invoice",
		},
		{
			name:    "no configuration fails closed",
			secrets: Secrets{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.secrets.For(tt.eventType)
			if tt.wantErr {
				require.ErrorIs(t, err, billing.ErrVerification)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
