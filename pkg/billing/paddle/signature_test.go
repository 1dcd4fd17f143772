package paddle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"subscription-billing-be/pkg/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPayload(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("ts=%d;h1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"event_type":"transaction.completed"}`)
	secret := "whsec_test"

	tests := []struct {
		name    string
		payload []byte
		header  string
		wantErr bool
	}{
		{
			name:    "valid signature",
			payload: payload,
			header:  signPayload(t, payload, secret, now),
		},
		{
			name:    "wrong secret",
			payload: payload,
			header:  signPayload(t, payload, "whsec_other", now),
			wantErr: true,
		},
		{
			name:    "tampered body",
			payload: []byte(`{"event_type":"transaction.completed","x":1}`),
			header:  signPayload(t, payload, secret, now),
			wantErr: true,
		},
		{
			name:    "stale timestamp",
			payload: payload,
			header:  signPayload(t, payload, secret, now.Add(-6*time.Minute)),
			wantErr: true,
		},
		{
			name:    "future timestamp",
			payload: payload,
			header:  signPayload(t, payload, secret, now.Add(6*time.Minute)),
			wantErr: true,
		},
		{
			name:    "missing header",
			payload: payload,
			header:  "",
			wantErr: true,
		},
		{
			name:    "malformed header",
			payload: payload,
			header:  "ts=abc;h1=",
			wantErr: true,
		},
		{
			name:    "empty payload",
			payload: nil,
			header:  signPayload(t, payload, secret, now),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifySignature(tt.payload, tt.header, secret, now)
			if tt.wantErr {
				require.ErrorIs(t, err, billing.ErrVerification)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
