package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prizewheel/config"
	"prizewheel/models"
	"prizewheel/service"
)

func TestRun_MemoryBackendStopsOnCancel(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.HTTPAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_WithMetricsEnabled(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "stdout"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	select {
	case err := <-done:
		t.Fatalf("Run returned before cancellation: %v", err)
	case <-time.After(200 * time.Millisecond):
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_NATSUnavailableReturnsError(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "stdout"
	cfg.NATSEnabled = true
	cfg.NATSServers = []string{"nats://127.0.0.1:1"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := Run(ctx, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestRun_EmptyPrizeTableIsConfigurationError(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.PrizeTable = models.PrizeTable{}

	err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, service.IsConfigurationError(err))
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	report := &service.PrizeReport{
		Total: 4,
		Lines: []*service.PrizeReportLine{
			{Prize: "DETERGENTE", Count: 3, ObservedShare: 0.75, ExpectedWeight: 2.0 / 6},
			{Prize: "ELECTROMENOR", Count: 1, ObservedShare: 0.25, ExpectedWeight: 1.0 / 6},
		},
	}

	require.NoError(t, WriteReport(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "PRIZE")
	assert.Contains(t, out, "DETERGENTE")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "33.3%")
	assert.Contains(t, out, "TOTAL")
}
