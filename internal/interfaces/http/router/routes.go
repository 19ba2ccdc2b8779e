package router

import (
	"github.com/invoicer/backend/internal/interfaces/http/handler"
)

// CustomerRoutes returns the /customers route group
func CustomerRoutes(h *handler.CustomerHandler) *DomainGroup {
	return NewDomainGroup("customers", "/customers").
		GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.GetByID).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete)
}

// InvoiceRoutes returns the /invoices route group. Static segments such as
// /stats and /calculate are registered alongside the :id routes.
func InvoiceRoutes(h *handler.InvoiceHandler) *DomainGroup {
	return NewDomainGroup("invoices", "/invoices").
		POST("/calculate", h.Calculate).
		GET("/stats", h.Stats).
		GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.GetByID).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete).
		POST("/:id/send", h.Send).
		POST("/:id/remind", h.Remind).
		POST("/:id/pay", h.MarkPaid).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/payments", h.RecordPayment).
		POST("/:id/payments/:paymentId/refund", h.RefundPayment)
}

// SystemRoutes returns the /system route group
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	dg := NewDomainGroup("system", "/system").
		GET("/info", h.GetSystemInfo).
		GET("/ping", h.Ping)
	dg.Group("scheduler", "/scheduler").
		GET("", h.SchedulerStatus).
		POST("/trigger", h.TriggerScheduler)
	return dg
}
