package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// CustomerFinder loads the customer an invoice is addressed to
type CustomerFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error)
}

// StatsCache stores the dashboard aggregates between invoice changes. Every
// invalidation advances the generation, and Set refuses stats loaded under an
// older one.
type StatsCache interface {
	Get(ctx context.Context) (*invoicing.Stats, bool, error)
	Generation(ctx context.Context) (uint64, error)
	Set(ctx context.Context, stats *invoicing.Stats, generation uint64) (bool, error)
	Name() string
}

// Settings holds the invoicing defaults applied by the service
type Settings struct {
	DefaultTaxRate   decimal.Decimal
	DefaultCurrency  string
	PaymentTermsDays int
	OverdueBatchSize int
}

// DefaultSettings returns the built-in invoicing defaults
func DefaultSettings() Settings {
	return Settings{
		DefaultTaxRate:   invoicing.DefaultTaxRate,
		DefaultCurrency:  invoicing.DefaultCurrencyCode,
		PaymentTermsDays: 30,
		OverdueBatchSize: 100,
	}
}

// InvoiceService handles invoice-related business operations
type InvoiceService struct {
	invoiceRepo    invoicing.InvoiceRepository
	customerFinder CustomerFinder
	settings       Settings
	logger         *zap.Logger
	statsCache     StatsCache
	eventPublisher shared.EventPublisher
	metrics        *telemetry.InvoiceMetrics
	now            func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo invoicing.InvoiceRepository,
	customerFinder CustomerFinder,
	settings Settings,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.OverdueBatchSize <= 0 {
		settings.OverdueBatchSize = DefaultSettings().OverdueBatchSize
	}
	return &InvoiceService{
		invoiceRepo:    invoiceRepo,
		customerFinder: customerFinder,
		settings:       settings,
		logger:         logger.Named("invoice_service"),
		now:            time.Now,
	}
}

// SetStatsCache sets the cache used by Stats
func (s *InvoiceService) SetStatsCache(cache StatsCache) {
	s.statsCache = cache
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the invoice metrics recorder
func (s *InvoiceService) SetMetrics(m *telemetry.InvoiceMetrics) {
	s.metrics = m
}

// Calculate runs the computation engine over submitted items and totals
// without storing anything
func (s *InvoiceService) Calculate(ctx context.Context, req CalculateRequest) (*CalculationResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, "invoice", "calculate",
		telemetry.SpanItemCount.Int(len(req.Items)))
	defer span.End()

	engine, err := s.buildEngine(req.Items, req.TotalsInput, s.settings.DefaultTaxRate)
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}
	if err := engine.Snapshot().Check(); err != nil {
		return nil, telemetry.Fail(span, err)
	}

	response := ToCalculationResponse(engine)
	telemetry.Succeed(span)
	return &response, nil
}

// Create creates a draft invoice for an existing customer
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()

	userID, err := parseRequiredID(req.UserID, "INVALID_USER", "User ID")
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}
	customerID, err := parseRequiredID(req.CustomerID, "INVALID_CUSTOMER", "Customer ID")
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}
	span.SetAttributes(
		telemetry.SpanUserID.String(userID.String()),
		telemetry.SpanCustomerID.String(customerID.String()),
		telemetry.SpanItemCount.Int(len(req.Items)),
	)

	if err := s.ensureCustomerExists(ctx, customerID); err != nil {
		return nil, telemetry.Fail(span, err)
	}

	issueDate := s.today()
	if req.IssueDate != "" {
		if issueDate, err = parseDate(req.IssueDate, "issue_date"); err != nil {
			return nil, telemetry.Fail(span, err)
		}
	}
	dueDate := issueDate.AddDate(0, 0, s.settings.PaymentTermsDays)
	if req.DueDate != "" {
		if dueDate, err = parseDate(req.DueDate, "due_date"); err != nil {
			return nil, telemetry.Fail(span, err)
		}
	}

	currencyCode := req.CurrencyCode
	if currencyCode == "" {
		currencyCode = s.settings.DefaultCurrency
	}

	number, err := s.resolveInvoiceNumber(ctx, req.InvoiceNumber, issueDate)
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}

	invoice, err := invoicing.NewInvoice(userID, customerID, number, issueDate, dueDate, currencyCode)
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}
	invoice.SetNotes(req.Notes)
	if err := invoice.SetRecipientEmail(req.RecipientEmail); err != nil {
		return nil, telemetry.Fail(span, err)
	}

	engine, err := s.buildEngine(req.Items, req.TotalsInput, s.settings.DefaultTaxRate)
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}
	if err := invoice.ApplyComputation(engine); err != nil {
		return nil, telemetry.Fail(span, err)
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, telemetry.Fail(span, err)
	}
	s.publishDomainEvents(ctx, invoice)

	telemetry.Succeed(span,
		telemetry.SpanInvoiceID.String(invoice.ID.String()),
		telemetry.SpanInvoiceNumber.String(invoice.InvoiceNumber),
		telemetry.SpanTotal.String(invoice.Total.String()),
		telemetry.SpanCurrency.String(invoice.CurrencyCode),
	)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetByID retrieves an invoice with its items and payments
func (s *InvoiceService) GetByID(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// List retrieves invoices with filtering and pagination, newest first by default
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceListResponse, int64, error) {
	q, err := filter.query()
	if err != nil {
		return nil, 0, err
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return ToInvoiceListResponses(invoices), total, nil
}

// Update changes an invoice. Items, totals, currency and issue date can only
// change on drafts; due date, notes and recipient until the invoice is paid
// or cancelled.
func (s *InvoiceService) Update(ctx context.Context, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update",
		telemetry.SpanInvoiceID.String(invoiceID.String()))
	defer span.End()

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}

	if err := s.applyDates(invoice, req); err != nil {
		return nil, telemetry.Fail(span, err)
	}

	if req.Notes != nil || req.RecipientEmail != nil {
		notes := invoice.Notes
		recipient := invoice.RecipientEmail
		if req.Notes != nil {
			notes = *req.Notes
		}
		if req.RecipientEmail != nil {
			recipient = *req.RecipientEmail
		}
		if err := invoice.UpdateDetails(invoice.DueDate, notes, recipient); err != nil {
			return nil, telemetry.Fail(span, err)
		}
	}

	if req.CurrencyCode != nil {
		if err := invoice.ChangeCurrency(*req.CurrencyCode); err != nil {
			return nil, telemetry.Fail(span, err)
		}
	}

	if req.touchesComputation() {
		engine, err := s.updatedEngine(invoice, req)
		if err != nil {
			return nil, telemetry.Fail(span, err)
		}
		if err := invoice.ApplyComputation(engine); err != nil {
			return nil, telemetry.Fail(span, err)
		}
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, telemetry.Fail(span, err)
	}
	s.publishDomainEvents(ctx, invoice)
	telemetry.Succeed(span)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// Delete deletes a draft or cancelled invoice
func (s *InvoiceService) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete",
		telemetry.SpanInvoiceID.String(invoiceID.String()))
	defer span.End()

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return telemetry.Fail(span, err)
	}
	if err := invoice.MarkDeleted(); err != nil {
		return telemetry.Fail(span, err)
	}
	if err := s.invoiceRepo.Delete(ctx, invoiceID); err != nil {
		return telemetry.Fail(span, err)
	}
	s.publishDomainEvents(ctx, invoice)
	telemetry.Succeed(span)
	return nil
}

// Send issues a draft invoice
func (s *InvoiceService) Send(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.changeInvoice(ctx, invoiceID, "send", func(inv *invoicing.Invoice) error {
		return inv.Send()
	})
}

// Remind records that a payment reminder was sent for an outstanding invoice
func (s *InvoiceService) Remind(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.changeInvoice(ctx, invoiceID, "remind", func(inv *invoicing.Invoice) error {
		return inv.RecordReminder()
	})
}

// MarkPaid marks an outstanding invoice as paid
func (s *InvoiceService) MarkPaid(ctx context.Context, invoiceID uuid.UUID, req MarkPaidRequest) (*InvoiceResponse, error) {
	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	return s.changeInvoice(ctx, invoiceID, "mark_paid", func(inv *invoicing.Invoice) error {
		return inv.MarkPaid(paidAt)
	})
}

// Cancel cancels an invoice that is neither paid nor cancelled
func (s *InvoiceService) Cancel(ctx context.Context, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	return s.changeInvoice(ctx, invoiceID, "cancel", func(inv *invoicing.Invoice) error {
		return inv.Cancel(req.Reason)
	})
}

// RecordPayment records a payment against an outstanding invoice. The
// invoice becomes paid once payments cover its total.
func (s *InvoiceService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	return s.changeInvoice(ctx, invoiceID, "record_payment", func(inv *invoicing.Invoice) error {
		if _, err := inv.RecordPayment(req.Amount, invoicing.PaymentMethod(req.Method), paidAt, req.Reference, req.Notes); err != nil {
			return err
		}
		if inv.IsOverpaid() {
			s.logger.Warn("Invoice overpaid",
				zap.String("invoice_id", inv.ID.String()),
				zap.String("total", inv.Total.String()),
				zap.String("amount_paid", inv.AmountPaid.String()))
		}
		return nil
	})
}

// RefundPayment refunds all or part of a recorded payment. A paid invoice
// that is no longer covered goes back to sent, or overdue once past due.
func (s *InvoiceService) RefundPayment(ctx context.Context, invoiceID, paymentID uuid.UUID, req RefundPaymentRequest) (*InvoiceResponse, error) {
	amount := decimal.Zero
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, shared.NewDomainError("INVALID_REFUND_AMOUNT", "Refund amount must be positive")
		}
		amount = *req.Amount
	}
	now := s.now()
	return s.changeInvoice(ctx, invoiceID, "refund_payment", func(inv *invoicing.Invoice) error {
		refund, err := inv.RefundPayment(paymentID, amount, req.Reason, now)
		if err != nil {
			return err
		}
		s.logger.Info("Payment refunded",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("payment_id", paymentID.String()),
			zap.String("amount", refund.Amount.Neg().String()),
			zap.String("status", inv.Status.String()))
		return nil
	})
}

// MarkOverdueInvoices moves every outstanding invoice whose due date passed
// before now to overdue. It returns the number of invoices marked.
func (s *InvoiceService) MarkOverdueInvoices(ctx context.Context, now time.Time) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "mark_overdue")
	defer span.End()

	marked := 0
	seen := make(map[uuid.UUID]struct{})
	for {
		batch, err := s.invoiceRepo.FindPastDue(ctx, now, s.settings.OverdueBatchSize)
		if err != nil {
			return marked, telemetry.Fail(span, err)
		}

		fresh := 0
		for i := range batch {
			invoice := &batch[i]
			if _, ok := seen[invoice.ID]; ok {
				continue
			}
			seen[invoice.ID] = struct{}{}
			fresh++

			if err := invoice.MarkOverdue(now); err != nil {
				s.logger.Debug("Skipping invoice in overdue sweep",
					zap.String("invoice_id", invoice.ID.String()),
					zap.Error(err))
				continue
			}
			if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
				if ctx.Err() != nil {
					return marked, telemetry.Fail(span, ctx.Err())
				}
				s.logger.Warn("Failed to mark invoice overdue",
					zap.String("invoice_id", invoice.ID.String()),
					zap.String("invoice_number", invoice.InvoiceNumber),
					zap.Error(err))
				continue
			}
			s.publishDomainEvents(ctx, invoice)
			marked++
		}

		if fresh == 0 || len(batch) < s.settings.OverdueBatchSize {
			break
		}
	}

	if s.metrics != nil {
		s.metrics.RecordOverdueMarked(ctx, marked)
	}
	telemetry.Succeed(span, telemetry.SpanMarked.Int(marked))
	return marked, nil
}

// Stats returns the dashboard aggregates, served from the cache when possible
func (s *InvoiceService) Stats(ctx context.Context) (*StatsResponse, error) {
	cacheable := false
	var generation uint64
	if s.statsCache != nil {
		cached, ok, err := s.statsCache.Get(ctx)
		if err != nil {
			s.logger.Warn("Stats cache lookup failed",
				zap.String("backend", s.statsCache.Name()),
				zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordStatsCacheLookup(ctx, s.statsCache.Name(), ok)
		}
		if ok {
			response := ToStatsResponse(cached)
			return &response, nil
		}
		// read before the repository so a concurrent invalidation is seen by Set
		generation, err = s.statsCache.Generation(ctx)
		cacheable = err == nil
	}

	stats, err := s.invoiceRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if cacheable {
		stored, err := s.statsCache.Set(ctx, stats, generation)
		switch {
		case err != nil:
			s.logger.Warn("Failed to store stats in cache",
				zap.String("backend", s.statsCache.Name()),
				zap.Error(err))
		case !stored:
			s.logger.Debug("Invoices changed while loading stats, not caching",
				zap.String("backend", s.statsCache.Name()),
				zap.Uint64("generation", generation))
		}
	}

	response := ToStatsResponse(stats)
	return &response, nil
}

// changeInvoice loads an invoice, applies a lifecycle change and saves it
func (s *InvoiceService) changeInvoice(ctx context.Context, invoiceID uuid.UUID, method string, apply func(*invoicing.Invoice) error) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", method,
		telemetry.SpanInvoiceID.String(invoiceID.String()))
	defer span.End()

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, telemetry.Fail(span, err)
	}
	if err := apply(invoice); err != nil {
		return nil, telemetry.Fail(span, err)
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, telemetry.Fail(span, err)
	}
	s.publishDomainEvents(ctx, invoice)

	telemetry.Succeed(span, telemetry.SpanInvoiceStatus.String(string(invoice.Status)))

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// applyDates moves issue and due dates. When both move, the order is chosen
// so that due >= issue holds after each step.
func (s *InvoiceService) applyDates(invoice *invoicing.Invoice, req UpdateInvoiceRequest) error {
	var issueDate, dueDate *time.Time
	if req.IssueDate != nil {
		d, err := parseDate(*req.IssueDate, "issue_date")
		if err != nil {
			return err
		}
		issueDate = &d
	}
	if req.DueDate != nil {
		d, err := parseDate(*req.DueDate, "due_date")
		if err != nil {
			return err
		}
		dueDate = &d
	}

	changeDue := func() error {
		if dueDate == nil {
			return nil
		}
		return invoice.UpdateDetails(*dueDate, invoice.Notes, invoice.RecipientEmail)
	}
	changeIssue := func() error {
		if issueDate == nil {
			return nil
		}
		return invoice.ChangeIssueDate(*issueDate)
	}

	if issueDate != nil && issueDate.After(invoice.DueDate) {
		if err := changeDue(); err != nil {
			return err
		}
		return changeIssue()
	}
	if err := changeIssue(); err != nil {
		return err
	}
	return changeDue()
}

// updatedEngine builds the engine for an update. Submitted items replace the
// stored ones; otherwise the stored state is restored and the submitted
// totals are applied on top of it.
func (s *InvoiceService) updatedEngine(invoice *invoicing.Invoice, req UpdateInvoiceRequest) (*invoicing.Engine, error) {
	if req.Items != nil {
		return s.buildEngine(req.Items, req.TotalsInput, invoice.TaxRate)
	}

	engine := invoice.Engine()
	if req.TaxRate != nil {
		if err := invoicing.ValidateTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
		engine.SetTaxRate(*req.TaxRate)
	}
	if req.Subtotal != nil {
		engine.SetSubtotalOverride(*req.Subtotal)
	}
	if req.TaxAmount != nil {
		engine.SetTaxAmountOverride(*req.TaxAmount, engine.ComputeSubtotal())
	}
	if req.Total != nil {
		engine.SetTotalOverride(*req.Total, engine.ComputeSubtotal())
	}
	return engine, nil
}

// buildEngine loads submitted items and totals into an engine. Any submitted
// amount that differs from what the items imply comes back as an override.
// A tax amount or total submitted without the fields it derives from fills
// them in the way the engine's override setters do.
func (s *InvoiceService) buildEngine(items []LineItemInput, totals TotalsInput, fallbackRate decimal.Decimal) (*invoicing.Engine, error) {
	rate := fallbackRate
	if totals.TaxRate != nil {
		if err := invoicing.ValidateTaxRate(*totals.TaxRate); err != nil {
			return nil, err
		}
		rate = *totals.TaxRate
	}

	lines := make([]invoicing.LineItem, len(items))
	sum := decimal.Zero
	for i, in := range items {
		line := invoicing.LineItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
		}
		line.Total = line.LineTotal()
		if in.Total != nil {
			line.Total = *in.Total
		}
		lines[i] = line
		sum = sum.Add(line.Total)
	}

	subtotal := sum
	if totals.Subtotal != nil {
		subtotal = *totals.Subtotal
	}

	var tax decimal.Decimal
	switch {
	case totals.TaxAmount != nil:
		tax = *totals.TaxAmount
		if totals.TaxRate == nil && subtotal.IsPositive() {
			rate = tax.Div(subtotal).Mul(hundred)
		}
	case totals.Total != nil:
		tax = totals.Total.Sub(subtotal)
		if totals.TaxRate == nil && !tax.IsNegative() && subtotal.IsPositive() {
			rate = tax.Div(subtotal).Mul(hundred)
		}
	default:
		tax = subtotal.Mul(rate).Div(hundred)
	}

	total := subtotal.Add(tax)
	if totals.Total != nil {
		total = *totals.Total
	}

	return invoicing.LoadEngine(lines, invoicing.StoredTotals{
		Subtotal:  subtotal,
		TaxRate:   rate,
		TaxAmount: tax,
		Total:     total,
	}), nil
}

func (s *InvoiceService) ensureCustomerExists(ctx context.Context, customerID uuid.UUID) error {
	if _, err := s.customerFinder.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
		}
		return err
	}
	return nil
}

func (s *InvoiceService) resolveInvoiceNumber(ctx context.Context, requested string, issueDate time.Time) (string, error) {
	number := strings.TrimSpace(requested)
	if number == "" {
		return s.invoiceRepo.GenerateInvoiceNumber(ctx, issueDate)
	}
	exists, err := s.invoiceRepo.ExistsByNumber(ctx, number)
	if err != nil {
		return "", err
	}
	if exists {
		return "", shared.NewDomainError("ALREADY_EXISTS", "Invoice with this number already exists")
	}
	return number, nil
}

func (s *InvoiceService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// publishDomainEvents records metrics for and publishes the invoice's
// pending events, then clears them
func (s *InvoiceService) publishDomainEvents(ctx context.Context, invoice *invoicing.Invoice) {
	events := invoice.PendingEvents()
	if len(events) == 0 {
		return
	}
	s.recordMetrics(ctx, invoice, events)
	if s.eventPublisher != nil {
		// Errors are logged by the event bus, not propagated
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	invoice.ClearEvents()
}

func (s *InvoiceService) recordMetrics(ctx context.Context, invoice *invoicing.Invoice, events []shared.DomainEvent) {
	if s.metrics == nil {
		return
	}
	for _, event := range events {
		switch e := event.(type) {
		case *invoicing.InvoiceCreatedEvent:
			s.metrics.RecordInvoiceCreated(ctx, invoice.CurrencyCode, invoice.Total)
		case *invoicing.InvoiceStatusChangedEvent:
			s.metrics.RecordStatusChange(ctx, string(e.OldStatus), string(e.NewStatus))
		case *invoicing.InvoicePaymentRecordedEvent:
			s.metrics.RecordPayment(ctx, string(e.Method), e.CurrencyCode, e.Amount)
		case *invoicing.InvoicePaymentRefundedEvent:
			s.metrics.RecordRefund(ctx, e.CurrencyCode, e.Amount)
		case *invoicing.InvoiceDeletedEvent:
			s.metrics.RecordInvoiceDeleted(ctx)
		}
	}
}

func parseRequiredID(raw, code, label string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, shared.NewDomainError(code, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, shared.NewDomainError(code, label+" must be a valid UUID")
	}
	return id, nil
}

func parseDate(raw, field string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, shared.NewDomainError("INVALID_DATE", fmt.Sprintf("%s must use the YYYY-MM-DD format", field))
	}
	return d, nil
}

