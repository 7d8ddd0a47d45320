package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/taskforge/internal/logging"
	"github.com/ShayCichocki/taskforge/internal/metrics"
)

func TestLogServeErrRecordsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.NewDebugLogger(path)
	require.NoError(t, err)

	errc := make(chan error, 1)
	errc <- errors.New("accept tcp: use of closed network connection")
	logServeErr(errc, logger)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[run] metrics server: accept tcp: use of closed network connection")
}

func TestLogServeErrReturnsAfterShutdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.NewDebugLogger(path)
	require.NoError(t, err)

	reg, _ := metrics.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	_, errc, err := metrics.Serve(ctx, "127.0.0.1:0", reg)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		logServeErr(errc, logger)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("logServeErr did not return after shutdown")
	}
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "metrics server")
}
