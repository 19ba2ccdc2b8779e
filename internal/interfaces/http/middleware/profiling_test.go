package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_AttachesRouteLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var route, controller, method string
	var found bool
	r := gin.New()
	r.Use(Profiling(DefaultProfilingConfig()))
	r.POST("/api/v1/invoices/:id/send", func(c *gin.Context) {
		ctx := c.Request.Context()
		route, found = pprof.Label(ctx, ProfilingLabelRoute)
		controller, _ = pprof.Label(ctx, ProfilingLabelController)
		method, _ = pprof.Label(ctx, ProfilingLabelMethod)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/invoices/abc/send", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, found)
	assert.Equal(t, "/api/v1/invoices/:id/send", route)
	assert.Equal(t, "invoices", controller)
	assert.Equal(t, http.MethodPost, method)
}

func TestProfiling_SkipsAndDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		cfg  ProfilingConfig
		path string
	}{
		{"disabled", ProfilingConfig{Enabled: false}, "/api/v1/customers"},
		{"skip path", DefaultProfilingConfig(), "/health"},
		{"skip prefix", DefaultProfilingConfig(), "/swagger/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var labelled bool
			r := gin.New()
			r.Use(Profiling(tt.cfg))
			r.GET(tt.path, func(c *gin.Context) {
				_, labelled = pprof.Label(c.Request.Context(), ProfilingLabelRoute)
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.False(t, labelled)
		})
	}
}

func TestControllerFromRoute(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"/api/v1/invoices", "invoices"},
		{"/api/v1/invoices/:id", "invoices"},
		{"/api/v2/customers/:id", "customers"},
		{"/health", "health"},
		{"/api/v1", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, controllerFromRoute(tt.route), tt.route)
	}
}

func TestIsVersionSegment(t *testing.T) {
	assert.True(t, isVersionSegment("v1"))
	assert.True(t, isVersionSegment("V12"))
	assert.False(t, isVersionSegment("v"))
	assert.False(t, isVersionSegment("vx"))
	assert.False(t, isVersionSegment("invoices"))
}
