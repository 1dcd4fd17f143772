package paddle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"subscription-billing-be/pkg/billing"
)

// Paddle signs webhooks with "ts=<unix>;h1=<hex hmac>" where the signed
// payload is "<ts>:<raw body>".
const signatureMaxAge = 5 * time.Minute

type signatureHeader struct {
	ts time.Time
	h1 string
}

func parseSignatureHeader(header string) (*signatureHeader, error) {
	parsed := &signatureHeader{}
	for _, part := range strings.Split(header, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			unix, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed signature timestamp", billing.ErrVerification)
			}
			parsed.ts = time.Unix(unix, 0)
		case "h1":
			parsed.h1 = value
		}
	}
	if parsed.ts.IsZero() || parsed.h1 == "" {
		return nil, fmt.Errorf("%w: incomplete signature header", billing.ErrVerification)
	}
	return parsed, nil
}

func verifySignature(payload []byte, header, secret string, now time.Time) error {
	if len(payload) == 0 || header == "" {
		return fmt.Errorf("%w: missing payload or signature", billing.ErrVerification)
	}
	parsed, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}
	if now.Sub(parsed.ts) > signatureMaxAge || parsed.ts.Sub(now) > signatureMaxAge {
		return fmt.Errorf("%w: signature timestamp outside tolerance", billing.ErrVerification)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:", parsed.ts.Unix())
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(parsed.h1)) {
		return fmt.Errorf("%w: signature mismatch", billing.ErrVerification)
	}
	return nil
}
