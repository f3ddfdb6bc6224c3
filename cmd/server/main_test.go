package main

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/skelgen/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_WaitsForCleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	var order []string
	var stopped atomic.Bool
	cleanup := []func(){
		func() {
			time.Sleep(50 * time.Millisecond)
			order = append(order, "workers")
		},
		func() {
			order = append(order, "store")
			stopped.Store(true)
		},
	}

	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, srv, logging.NewNop(), cleanup...) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
	assert.True(t, stopped.Load(), "serve returned before cleanup finished")
	assert.Equal(t, []string{"workers", "store"}, order)
}

func TestServe_ListenError(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:-1"}
	err := serve(context.Background(), srv, logging.NewNop())
	assert.Error(t, err)
}
