package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"motoka/internal/config"
	"motoka/internal/entity"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMonicreditSecret = "whsec_monicredit"

func newTestMonicredit(t *testing.T, baseURL string) *MonicreditAdapter {
	t.Helper()

	metrics, log := newTestDeps(t)
	a, err := NewMonicredit(config.Monicredit{
		Enabled:       true,
		BaseURL:       baseURL,
		PublicKey:     "PUB_KEY",
		PrivateKey:    "PRV_KEY",
		WebhookSecret: testMonicreditSecret,
		RevenueHead:   "REV-001",
		Timeout:       2 * time.Second,
	}, metrics, log)
	require.NoError(t, err)
	return a
}

func TestMonicredit_InitiateCharge(t *testing.T) {
	t.Parallel()

	var got monicreditInitRequest
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment/transactions/init-transaction", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","id":"ACX123","authorization_url":"https://pay.monicredit.com/ACX123"}`))
	})

	init, err := newTestMonicredit(t, srv.URL).InitiateCharge(context.Background(), &entity.ChargeRequest{
		TransactionID: "MTK-9",
		Amount:        decimal.NewFromInt(19700),
		Currency:      "NGN",
		Customer:      entity.Customer{Email: gofakeit.Email(), Name: "Ada Lovelace"},
		LineItems:     []entity.LineItem{{FeeID: 1, Name: "Insurance", Amount: decimal.NewFromInt(15000)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "ACX123", init.ProviderReference)
	assert.Equal(t, "MTK-9", got.OrderID)
	assert.Equal(t, "PUB_KEY", got.PublicKey)
	assert.Equal(t, "Ada", got.Customer.FirstName)
	assert.Equal(t, "Lovelace", got.Customer.LastName)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "15000.00", got.Items[0].UnitCost)
	assert.Equal(t, "4700.00", got.Items[1].UnitCost)
}

func TestMonicredit_InitiateCharge_Rejected(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"status":false,"message":"invalid public key"}`))
	})

	_, err := newTestMonicredit(t, srv.URL).InitiateCharge(context.Background(), &entity.ChargeRequest{
		TransactionID: "MTK-9",
		Amount:        decimal.NewFromInt(100),
	})
	require.ErrorIs(t, err, entity.ErrGatewayMisconfigured)
}

func TestMonicredit_VerifyCharge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		key        string
		body       string
		wantStatus entity.ResultStatus
		wantTxID   string
		wantAmount string
	}{
		{
			name:       "approved by caller id",
			key:        "MTK-9",
			body:       `{"status":true,"data":{"status":"APPROVED","order_id":"MTK-9","transaction_id":"ACX123","amount":"19700.00","date_paid":"2026-01-02 10:00:00"}}`,
			wantStatus: entity.ResultSuccess,
			wantTxID:   "MTK-9",
			wantAmount: "19700",
		},
		{
			name:       "approved by provider id",
			key:        "ACX123",
			body:       `{"status":true,"data":{"status":"SUCCESS","order_id":"MTK-9","transaction_id":"ACX123","amount":19700}}`,
			wantStatus: entity.ResultSuccess,
			wantTxID:   "MTK-9",
			wantAmount: "19700",
		},
		{
			name:       "declined",
			key:        "MTK-9",
			body:       `{"status":true,"data":{"status":"DECLINED","order_id":"MTK-9","transaction_id":"ACX123","amount":"19700"}}`,
			wantStatus: entity.ResultFailed,
			wantTxID:   "MTK-9",
			wantAmount: "19700",
		},
		{
			name:       "pending",
			key:        "MTK-9",
			body:       `{"status":true,"data":{"status":"PENDING","order_id":"MTK-9"}}`,
			wantStatus: entity.ResultPending,
			wantTxID:   "MTK-9",
		},
		{
			name:       "unrecognized",
			key:        "MTK-9",
			body:       `{"status":true,"data":{"status":"ON_HOLD","order_id":"MTK-9"}}`,
			wantStatus: entity.ResultUnknown,
			wantTxID:   "MTK-9",
		},
		{
			name:       "not found",
			key:        "MTK-404",
			body:       `{"status":false,"message":"Transaction not found"}`,
			wantStatus: entity.ResultUnknown,
			wantTxID:   "MTK-404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				var req map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, tt.key, req["transaction_id"])
				assert.Equal(t, "PRV_KEY", req["private_key"])
				_, _ = w.Write([]byte(tt.body))
			})

			res, err := newTestMonicredit(t, srv.URL).VerifyCharge(context.Background(), tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantTxID, res.TransactionID)
			if tt.wantAmount == "" {
				assert.Nil(t, res.ReportedAmount)
			} else {
				require.NotNil(t, res.ReportedAmount)
				assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(*res.ReportedAmount))
			}
		})
	}
}

func TestMonicredit_VerifyCharge_ServerError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := newTestMonicredit(t, srv.URL).VerifyCharge(context.Background(), "MTK-9")
	require.ErrorIs(t, err, entity.ErrGatewayUnavailable)
}

func TestMonicredit_Webhook(t *testing.T) {
	t.Parallel()

	a := newTestMonicredit(t, "http://unused")
	body := []byte(`{"event":"transaction.successful","data":{"order_id":"MTK-9","transaction_id":"ACX123"}}`)

	assert.True(t, a.VerifyWebhookSignature(body, SignWebhook(testMonicreditSecret, body)))
	assert.False(t, a.VerifyWebhookSignature(body, SignWebhook(testPaystackSecret, body)))

	ev, err := a.ParseWebhookEvent(body)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookChargeSuccess, ev.Kind)
	assert.Equal(t, "MTK-9", ev.Reference)

	ev, err = a.ParseWebhookEvent([]byte(`{"event":"transaction.dispute","data":{"transaction_id":"ACX123"}}`))
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookDispute, ev.Kind)
	assert.Equal(t, "ACX123", ev.Reference)

	ev, err = a.ParseWebhookEvent([]byte(`{"event":"wallet.funded","data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookUnhandled, ev.Kind)
}

func TestNewMonicredit_MissingCredentials(t *testing.T) {
	t.Parallel()

	metrics, log := newTestDeps(t)
	_, err := NewMonicredit(config.Monicredit{PublicKey: "x", PrivateKey: "y"}, metrics, log)
	require.ErrorIs(t, err, entity.ErrGatewayMisconfigured)
}
