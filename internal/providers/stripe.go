package providers

import (
	"context"
	"errors"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/processor"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/cassiomorais/checkout/pkg/retry"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// StripeGateway is the processor.Gateway of one sales channel. Every call goes through
// the channel's circuit breaker; only reads are retried.
type StripeGateway struct {
	channelID     string
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
	platformName  string
	breaker       *gobreaker.CircuitBreaker[any]
	retry         retry.Config
	logger        zerolog.Logger
	metrics       *observability.Metrics
}

var _ processor.Gateway = (*StripeGateway)(nil)

// call runs fn through the breaker and maps its error. The breaker only counts
// unavailability as failure, so declined payments never trip it.
func call[T any](g *StripeGateway, op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := g.breaker.Execute(func() (any, error) {
		v, err := fn()
		return v, mapError(op, err)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = mapError(op, err)
	}
	g.metrics.ObserveGatewayRequest(op, resultLabel(err), time.Since(start))
	g.metrics.ObserveBreakerRequest(g.breaker.Name(), resultLabel(err))
	if err != nil {
		g.logger.Warn().Err(err).Str("operation", op).Msg("Stripe request failed")
		var zero T
		return zero, err
	}
	res, _ := out.(T)
	return res, nil
}

// read is call with retries of transient failures.
func read[T any](ctx context.Context, g *StripeGateway, op string, fn func() (T, error)) (T, error) {
	cfg := g.retry
	cfg.RetryIf = isTransient
	return retry.DoWithResult(ctx, cfg, func() (T, error) {
		return call(g, op, fn)
	})
}

func (g *StripeGateway) params(ctx context.Context, p *stripe.Params) {
	p.Context = ctx
	if g.platformName != "" {
		p.AddMetadata(processor.PlatformMetadataKey, g.platformName)
	}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, req processor.PaymentIntentRequest) (*processor.PaymentIntent, error) {
	params := paymentIntentParams(req)
	g.params(ctx, &params.Params)
	pi, err := call(g, "payment_intent.create", func() (*stripe.PaymentIntent, error) {
		return g.api.PaymentIntents.New(params)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentIntent(pi), nil
}

func (g *StripeGateway) GetPaymentIntent(ctx context.Context, id string) (*processor.PaymentIntent, error) {
	pi, err := read(ctx, g, "payment_intent.get", func() (*stripe.PaymentIntent, error) {
		params := &stripe.PaymentIntentParams{}
		params.Context = ctx
		return g.api.PaymentIntents.Get(id, params)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentIntent(pi), nil
}

func (g *StripeGateway) UpdatePaymentIntentDescription(ctx context.Context, id, description string) error {
	params := &stripe.PaymentIntentParams{Description: stripe.String(description)}
	g.params(ctx, &params.Params)
	_, err := call(g, "payment_intent.update", func() (*stripe.PaymentIntent, error) {
		return g.api.PaymentIntents.Update(id, params)
	})
	return err
}

func (g *StripeGateway) CreateSource(ctx context.Context, req processor.SourceRequest) (*processor.Source, error) {
	params := sourceParams(req)
	g.params(ctx, &params.Params)
	src, err := call(g, "source.create", func() (*stripe.Source, error) {
		return g.api.Sources.New(params)
	})
	if err != nil {
		return nil, err
	}
	return toSource(src), nil
}

func (g *StripeGateway) GetSource(ctx context.Context, id string) (*processor.Source, error) {
	src, err := read(ctx, g, "source.get", func() (*stripe.Source, error) {
		params := &stripe.SourceParams{}
		params.Context = ctx
		return g.api.Sources.Get(id, params)
	})
	if err != nil {
		return nil, err
	}
	return toSource(src), nil
}

func (g *StripeGateway) CreateCharge(ctx context.Context, req processor.ChargeRequest) (*processor.Charge, error) {
	params, err := chargeParams(req)
	if err != nil {
		return nil, mapError("charge.create", err)
	}
	g.params(ctx, &params.Params)
	ch, err := call(g, "charge.create", func() (*stripe.Charge, error) {
		return g.api.Charges.New(params)
	})
	if err != nil {
		return nil, err
	}
	return toCharge(ch), nil
}

func (g *StripeGateway) UpdateChargeDescription(ctx context.Context, id, description string) error {
	params := &stripe.ChargeParams{Description: stripe.String(description)}
	g.params(ctx, &params.Params)
	_, err := call(g, "charge.update", func() (*stripe.Charge, error) {
		return g.api.Charges.Update(id, params)
	})
	return err
}

func (g *StripeGateway) GetCustomer(ctx context.Context, id string) (*processor.Customer, error) {
	c, err := read(ctx, g, "customer.get", func() (*stripe.Customer, error) {
		params := &stripe.CustomerParams{}
		params.Context = ctx
		return g.api.Customers.Get(id, params)
	})
	if err != nil {
		return nil, err
	}
	return toCustomer(c), nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, req processor.CustomerRequest) (*processor.Customer, error) {
	params := &stripe.CustomerParams{}
	setString(&params.Name, req.Name)
	setString(&params.Description, req.Description)
	setString(&params.Email, req.Email)
	g.params(ctx, &params.Params)
	c, err := call(g, "customer.create", func() (*stripe.Customer, error) {
		return g.api.Customers.New(params)
	})
	if err != nil {
		return nil, err
	}
	return toCustomer(c), nil
}
