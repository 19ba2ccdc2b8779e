package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength bounds request IDs taken from the X-Request-ID header.
const MaxRequestIDLength = 128

var clientErrorText = map[int]string{
	http.StatusNotFound:        "Not Found",
	http.StatusConflict:        "Conflict",
	http.StatusTooManyRequests: "Too Many Requests",
}

// Tracing opens an otelgin server span per request, named "METHOD route"
// (e.g. "GET /api/v1/invoices/:id"), and annotates it with the request ID
// and an error status for 4xx and 5xx responses. It returns an empty chain
// when tracing is disabled. RequestID must run first.
func Tracing(serviceName string, enabled bool) gin.HandlersChain {
	if !enabled {
		return nil
	}
	return gin.HandlersChain{otelgin.Middleware(serviceName), annotateSpan}
}

func annotateSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}

	if id := spanRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}

	c.Next()

	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		return
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	span.SetStatus(codes.Error, spanErrorText(status))
}

func spanErrorText(status int) string {
	if status >= http.StatusInternalServerError {
		return "Internal Server Error"
	}
	if text, ok := clientErrorText[status]; ok {
		return text
	}
	return "Client Error"
}

func spanRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	id := c.GetHeader(RequestIDHeader)
	return id[:min(len(id), MaxRequestIDLength)]
}
