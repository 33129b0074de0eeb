package gateway

//go:generate mockgen -source=gateway.go -destination=mock/gateway.go -package=mock_gateway

import (
	"context"
	"fmt"
	"sort"

	"motoka/internal/config"
	"motoka/internal/entity"
	"motoka/pkg/logger"
	"motoka/pkg/metric"
)

const (
	Paystack   = "paystack"
	Monicredit = "monicredit"
)

// Adapter translates charge initiation and verification into one provider's
// HTTP API. Methods only fail on transport or configuration problems; a
// declined payment is a normal GatewayResult.
type Adapter interface {
	Name() string
	InitiateCharge(ctx context.Context, req *entity.ChargeRequest) (*entity.ChargeInitiation, error)
	// VerifyCharge is a read and may be called any number of times.
	VerifyCharge(ctx context.Context, key string) (*entity.GatewayResult, error)
	VerifyWebhookSignature(rawBody []byte, signature string) bool
	SignatureHeader() string
	ParseWebhookEvent(rawBody []byte) (*entity.WebhookEvent, error)
}

type Registry struct {
	adapters    map[string]Adapter
	defaultName string
}

func NewRegistry(defaultName string, adapters ...Adapter) (*Registry, error) {
	const op = "gateway.NewRegistry"

	r := &Registry{
		adapters:    make(map[string]Adapter, len(adapters)),
		defaultName: defaultName,
	}
	for _, a := range adapters {
		if _, dup := r.adapters[a.Name()]; dup {
			return nil, fmt.Errorf("%s: duplicate adapter %q", op, a.Name())
		}
		r.adapters[a.Name()] = a
	}

	if _, ok := r.adapters[defaultName]; !ok {
		return nil, fmt.Errorf("%s: default gateway %q: %w", op, defaultName, entity.ErrUnknownGateway)
	}

	return r, nil
}

// NewFromConfig builds a registry holding every gateway enabled in cfg.
func NewFromConfig(cfg *config.Config, metrics metric.Gateway, log logger.Logger) (*Registry, error) {
	const op = "gateway.NewFromConfig"

	var adapters []Adapter

	if cfg.Gateways.Paystack.Enabled {
		a, err := NewPaystack(cfg.Gateways.Paystack, metrics, log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		adapters = append(adapters, a)
	}

	if cfg.Gateways.Monicredit.Enabled {
		a, err := NewMonicredit(cfg.Gateways.Monicredit, metrics, log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		adapters = append(adapters, a)
	}

	return NewRegistry(cfg.Payment.DefaultGateway, adapters...)
}

func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("gateway.Registry.Get: %q: %w", name, entity.ErrUnknownGateway)
	}
	return a, nil
}

func (r *Registry) Default() Adapter {
	return r.adapters[r.defaultName]
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
