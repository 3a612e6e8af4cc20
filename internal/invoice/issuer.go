package invoice

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// Issuer produces the invoice of a committed order.
type Issuer interface {
	Issue(ctx context.Context, order *model.Order) (*model.Invoice, error)
}

type issuer struct {
	renderer Renderer
	store    Store
	invoices repository.InvoiceRepository
	users    repository.UserRepository
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewIssuer wires rendering, storage, bookkeeping and mailing of invoices.
func NewIssuer(
	renderer Renderer,
	store Store,
	invoices repository.InvoiceRepository,
	users repository.UserRepository,
	notifier notify.Notifier,
	logger zerolog.Logger,
) Issuer {
	return &issuer{
		renderer: renderer,
		store:    store,
		invoices: invoices,
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("component", "invoice-issuer").Logger(),
	}
}

// Issue renders and stores the invoice, records it, then emails the customer.
// A failed email is logged and does not fail the call. An order that already
// has an invoice gets the existing record back.
func (i *issuer) Issue(ctx context.Context, order *model.Order) (*model.Invoice, error) {
	existing, err := i.invoices.GetByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		i.logger.Debug().Int64("order_id", order.ID).Str("invoice_number", existing.Number).Msg("invoice already issued")
		return existing, nil
	}

	customer, err := i.users.GetByID(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if customer == nil {
		return nil, model.ErrUserNotFound
	}

	document, err := i.renderer.Render(order, customer)
	if err != nil {
		return nil, err
	}

	number := Number(order.ID)
	location, err := i.store.Put(ctx, number+i.renderer.Extension(), i.renderer.ContentType(), document)
	if err != nil {
		return nil, fmt.Errorf("failed to store invoice: %w", err)
	}

	inv := &model.Invoice{OrderID: order.ID, Number: number, Location: location}
	if err := i.invoices.Save(ctx, inv); err != nil {
		return nil, err
	}

	if err := i.notifier.Notify(ctx, notify.InvoiceIssued(customer, inv, string(document))); err != nil {
		i.logger.Warn().Err(err).Int64("order_id", order.ID).Msg("failed to send invoice email")
	}

	i.logger.Info().
		Int64("order_id", order.ID).
		Str("invoice_number", number).
		Str("location", location).
		Msg("invoice issued")

	return inv, nil
}
