package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProfilerConfig
		wantErr string
	}{
		{"missing server address", ProfilerConfig{Enabled: true, ApplicationName: "invoicer"}, "server address"},
		{"missing application name", ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, "application name"},
		{"both missing", ProfilerConfig{Enabled: true}, "server address is required\napplication name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProfiler(tt.cfg, zap.NewNop())
			assert.Nil(t, p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfiler_StopConcurrent(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Stop())
		}()
	}
	wg.Wait()
}

func TestProfilerConfig_Tags(t *testing.T) {
	t.Setenv("HOSTNAME", "invoicer-0")

	tags := ProfilerConfig{Environment: "staging"}.tags()
	assert.Equal(t, map[string]string{"env": "staging", "hostname": "invoicer-0"}, tags)

	t.Setenv("HOSTNAME", "")
	assert.Equal(t, map[string]string{"version": "1.4.0"}, ProfilerConfig{Version: "1.4.0"}.tags())
}
