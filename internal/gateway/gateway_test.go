package gateway

import (
	"testing"

	"motoka/internal/config"
	"motoka/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	metrics, log := newTestDeps(t)

	cfg := &config.Config{}
	cfg.Payment.DefaultGateway = Paystack
	cfg.Gateways.Paystack = config.Paystack{Enabled: true, BaseURL: "https://api.paystack.co", SecretKey: "sk"}
	cfg.Gateways.Monicredit = config.Monicredit{Enabled: true, PublicKey: "p", PrivateKey: "k", WebhookSecret: "w"}

	reg, err := NewFromConfig(cfg, metrics, log)
	require.NoError(t, err)

	assert.Equal(t, []string{Monicredit, Paystack}, reg.Names())
	assert.Equal(t, Paystack, reg.Default().Name())

	a, err := reg.Get(Monicredit)
	require.NoError(t, err)
	assert.Equal(t, Monicredit, a.Name())

	_, err = reg.Get("flutterwave")
	require.ErrorIs(t, err, entity.ErrUnknownGateway)
}

func TestNewRegistry_DefaultMustExist(t *testing.T) {
	t.Parallel()

	metrics, log := newTestDeps(t)
	ps, err := NewPaystack(config.Paystack{SecretKey: "sk"}, metrics, log)
	require.NoError(t, err)

	_, err = NewRegistry(Monicredit, ps)
	require.ErrorIs(t, err, entity.ErrUnknownGateway)

	_, err = NewRegistry(Paystack, ps, ps)
	require.Error(t, err)
}
