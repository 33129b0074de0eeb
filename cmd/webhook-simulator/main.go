//nolint:mnd
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"motoka/internal/gateway"

	"github.com/brianvoe/gofakeit/v7"
)

func main() {
	target := flag.String("url", "http://localhost:8080/api/v1/payment/webhook", "Webhook base URL")
	gatewayName := flag.String("gateway", gateway.Paystack, "Gateway to impersonate: paystack or monicredit")
	secret := flag.String("secret", "", "Signing secret shared with the service")
	reference := flag.String("reference", "", "Transaction reference; random when empty")
	event := flag.String("event", "", "Event type; the gateway's success event when empty")
	numMessages := flag.Int("count", 1, "Number of webhooks to send")
	interval := flag.Duration("interval", time.Second, "Interval between webhooks")
	tamper := flag.Bool("tamper", false, "Send an invalid signature")

	flag.Parse()

	if *secret == "" {
		log.Fatal("-secret is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := *target + "/" + *gatewayName

	log.Printf("Sending %d %s webhook(s) to %s every %v\n", *numMessages, *gatewayName, endpoint, *interval)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for sent := 0; sent < *numMessages; sent++ {
		if sent > 0 {
			select {
			case <-ctx.Done():
				log.Println("Shutting down simulator...")
				return
			case <-ticker.C:
			}
		}

		ref := *reference
		if ref == "" {
			ref = "MTK-" + gofakeit.LetterN(20)
		}

		body, header := buildPayload(*gatewayName, *event, ref)
		signature := gateway.SignWebhook(*secret, body)
		if *tamper {
			signature = gateway.SignWebhook(gofakeit.Password(true, true, true, false, false, 24), body)
		}

		sendWebhook(ctx, client, endpoint, header, signature, body)
	}
}

func buildPayload(gatewayName, event, reference string) ([]byte, string) {
	var (
		payload any
		header  string
	)

	amount := gofakeit.IntRange(500, 50000)

	switch gatewayName {
	case gateway.Monicredit:
		if event == "" {
			event = "transaction.successful"
		}
		header = "X-Monicredit-Signature"
		payload = map[string]any{
			"event": event,
			"data": map[string]any{
				"order_id":       reference,
				"transaction_id": "ACX" + gofakeit.DigitN(12),
				"amount":         amount,
				"status":         "APPROVED",
				"paid_at":        time.Now().UTC().Format(time.RFC3339),
			},
		}
	default:
		if event == "" {
			event = "charge.success"
		}
		header = "X-Paystack-Signature"
		payload = map[string]any{
			"event": event,
			"data": map[string]any{
				"id":        gofakeit.Int64(),
				"reference": reference,
				"amount":    amount * 100,
				"currency":  "NGN",
				"status":    "success",
				"customer":  map[string]any{"email": gofakeit.Email()},
				"paid_at":   time.Now().UTC().Format(time.RFC3339),
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Failed to marshal payload: %v", err)
	}
	return body, header
}

func sendWebhook(ctx context.Context, client *http.Client, endpoint, header, signature string, body []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("Failed to build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(header, signature)

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Failed to deliver webhook: %v", err)
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	log.Printf("Delivered webhook: status=%d body=%s", resp.StatusCode, respBody)
}
