package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
)

// InvoiceService is the subset of the invoice application service used by
// the HTTP layer
type InvoiceService interface {
	Calculate(ctx context.Context, req invoicingapp.CalculateRequest) (*invoicingapp.CalculationResponse, error)
	Create(ctx context.Context, req invoicingapp.CreateInvoiceRequest) (*invoicingapp.InvoiceResponse, error)
	GetByID(ctx context.Context, invoiceID uuid.UUID) (*invoicingapp.InvoiceResponse, error)
	List(ctx context.Context, filter invoicingapp.InvoiceListFilter) ([]invoicingapp.InvoiceListResponse, int64, error)
	Update(ctx context.Context, invoiceID uuid.UUID, req invoicingapp.UpdateInvoiceRequest) (*invoicingapp.InvoiceResponse, error)
	Delete(ctx context.Context, invoiceID uuid.UUID) error
	Send(ctx context.Context, invoiceID uuid.UUID) (*invoicingapp.InvoiceResponse, error)
	Remind(ctx context.Context, invoiceID uuid.UUID) (*invoicingapp.InvoiceResponse, error)
	MarkPaid(ctx context.Context, invoiceID uuid.UUID, req invoicingapp.MarkPaidRequest) (*invoicingapp.InvoiceResponse, error)
	Cancel(ctx context.Context, invoiceID uuid.UUID, req invoicingapp.CancelInvoiceRequest) (*invoicingapp.InvoiceResponse, error)
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, req invoicingapp.RecordPaymentRequest) (*invoicingapp.InvoiceResponse, error)
	RefundPayment(ctx context.Context, invoiceID, paymentID uuid.UUID, req invoicingapp.RefundPaymentRequest) (*invoicingapp.InvoiceResponse, error)
	Stats(ctx context.Context) (*invoicingapp.StatsResponse, error)
}

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// bindOptionalJSON binds the body when one was sent. Empty bodies leave obj
// at its zero value.
func (h *InvoiceHandler) bindOptionalJSON(c *gin.Context, obj any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.BindJSON(c, obj)
}

// Calculate godoc
// @ID           calculateInvoice
// @Summary      Preview invoice totals
// @Description  Compute item totals, subtotal, tax and total for a set of line items without storing anything.
// @Description  Submitted header amounts that disagree with the computed ones are kept as overrides.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body invoicingapp.CalculateRequest true "Items and optional header amounts"
// @Success      200 {object} APIResponse[invoicingapp.CalculationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/calculate [post]
func (h *InvoiceHandler) Calculate(c *gin.Context) {
	var req invoicingapp.CalculateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.invoiceService.Calculate(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Create godoc
// @ID           createInvoice
// @Summary      Create a new invoice
// @Description  Create a draft invoice for an existing customer. A missing invoice number is generated.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body invoicingapp.CreateInvoiceRequest true "Invoice creation request"
// @Success      201 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req invoicingapp.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetByID godoc
// @ID           getInvoiceById
// @Summary      Get invoice by ID
// @Description  Retrieve an invoice with its items and payments
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Description  Retrieve a paginated list of invoices with optional filtering
// @Tags         invoices
// @Produce      json
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        user_id query string false "Owner user ID" format(uuid)
// @Param        status query string false "Invoice status" Enums(draft, sent, paid, overdue, reminder_sent, cancelled)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(issue_date)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]invoicingapp.InvoiceListResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter invoicingapp.InvoiceListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Update an invoice
// @Description  Update a draft or outstanding invoice. Omitted fields are left unchanged and totals are recomputed when items or amounts change.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicingapp.UpdateInvoiceRequest true "Invoice update request"
// @Success      200 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "invoice")
	if !ok {
		return
	}

	var req invoicingapp.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), invoiceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Delete godoc
// @ID           deleteInvoice
// @Summary      Delete an invoice
// @Description  Delete an invoice together with its items and payments
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "invoice")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), invoiceID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Send godoc
// @ID           sendInvoice
// @Summary      Send an invoice
// @Description  Move a draft invoice to sent
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Send(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Remind godoc
// @ID           remindInvoice
// @Summary      Record a payment reminder
// @Description  Record that a reminder was sent for an outstanding invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/remind [post]
func (h *InvoiceHandler) Remind(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Remind(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// MarkPaid godoc
// @ID           payInvoice
// @Summary      Mark an invoice as paid
// @Description  Mark an outstanding invoice as paid. The body is optional; paid_at defaults to now.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicingapp.MarkPaidRequest false "Payment date"
// @Success      200 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "invoice")
	if !ok {
		return
	}

	var req invoicingapp.MarkPaidRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), invoiceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Cancel godoc
// @ID           cancelInvoice
// @Summary      Cancel an invoice
// @Description  Cancel an invoice that is neither paid nor already cancelled
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicingapp.CancelInvoiceRequest false "Cancellation reason"
// @Success      200 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "invoice")
	if !ok {
		return
	}

	var req invoicingapp.CancelInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Cancel(c.Request.Context(), invoiceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// RecordPayment godoc
// @ID           recordInvoicePayment
// @Summary      Record a payment
// @Description  Record a payment against an outstanding invoice. The invoice becomes paid once payments cover its total.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicingapp.RecordPaymentRequest true "Payment details"
// @Success      200 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "invoice")
	if !ok {
		return
	}

	var req invoicingapp.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), invoiceID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// RefundPayment godoc
// @ID           refundInvoicePayment
// @Summary      Refund a payment
// @Description  Refund all or part of a recorded payment. Without an amount the rest of the payment is refunded. A paid invoice that is no longer covered reopens as sent, or overdue when past due.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        paymentId path string true "Payment ID" format(uuid)
// @Param        request body invoicingapp.RefundPaymentRequest false "Refund details"
// @Success      200 {object} APIResponse[invoicingapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/payments/{paymentId}/refund [post]
func (h *InvoiceHandler) RefundPayment(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "invoice")
	if !ok {
		return
	}
	paymentID, ok := h.ParseParamID(c, "paymentId", "payment")
	if !ok {
		return
	}

	var req invoicingapp.RefundPaymentRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.RefundPayment(c.Request.Context(), invoiceID, paymentID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Stats godoc
// @ID           getInvoiceStats
// @Summary      Dashboard statistics
// @Description  Aggregated invoice counts and amounts for the dashboard
// @Tags         invoices
// @Produce      json
// @Success      200 {object} APIResponse[invoicingapp.StatsResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/stats [get]
func (h *InvoiceHandler) Stats(c *gin.Context) {
	stats, err := h.invoiceService.Stats(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}
