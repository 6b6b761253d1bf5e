package utils

import (
	"context"
	"testing"
	"time"
)

func TestStartHealthMonitorReturnsAndChecks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	returned := make(chan struct{})
	go func() {
		StartHealthMonitor(ctx, nil, nil)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("StartHealthMonitor blocked the caller")
	}

	deadline := time.Now().Add(2 * time.Second)
	for GetHealthStatus().CheckedAt.IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("no health check ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s := GetHealthStatus(); s.Redis != nil || s.Mongo != nil {
		t.Fatalf("unconfigured services reported: %+v", s)
	}
}
