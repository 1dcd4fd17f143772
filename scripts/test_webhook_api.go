package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const baseURL = "http://localhost:3000/api"

// Replays a checkout fixture against the shared test webhook route. Needs
// STRIPE_TEST_SECRET set and the server running outside production mode.
func main() {
	_ = godotenv.Load()

	secret := os.Getenv("STRIPE_TEST_SECRET")
	if secret == "" {
		color.Red("STRIPE_TEST_SECRET not set")
		os.Exit(1)
	}

	payload := []byte(`{
		"id": "evt_smoke_1",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_smoke_1",
				"customer_details": {"email": "smoke@example.com"},
				"client_reference_id": "smoke-user-1",
				"subscription": "sub_smoke_1",
				"amount_total": 1999,
				"currency": "usd",
				"metadata": {"product_code": "pro_monthly"}
			}
		}
	}`)

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(payload)
	signature := fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	req, err := http.NewRequest(http.MethodPost, baseURL+"/payment/webhook/stripe/commonTestRoute", bytes.NewReader(payload))
	if err != nil {
		color.Red("build request: %v", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		color.Red("request failed: %v", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK {
		color.Green("OK %d", resp.StatusCode)
	} else {
		color.Red("FAIL %d", resp.StatusCode)
	}
	fmt.Println(string(body))
}
