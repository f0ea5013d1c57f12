package cli

import (
	"context"
	"testing"
	"time"
)

func TestRunServeShutdown(t *testing.T) {
	c := newTestCLI(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	opts := serveOpts{addr: "127.0.0.1:0", noCache: true}
	if err := c.runServe(ctx, &opts); err != nil {
		t.Fatalf("runServe error: %v", err)
	}
}

func TestServeStoreDefaultsToMemory(t *testing.T) {
	c := newTestCLI(t)

	st, err := c.serveStore(context.Background())
	if err != nil {
		t.Fatalf("serveStore error: %v", err)
	}
	if err := st.Close(context.Background()); err != nil {
		t.Errorf("Close error: %v", err)
	}
}

func TestServeCacheDisabled(t *testing.T) {
	c := newTestCLI(t)

	rc, err := c.serveCache(context.Background(), true)
	if err != nil {
		t.Fatalf("serveCache error: %v", err)
	}
	defer rc.Close()

	if _, hit, _ := rc.Get(context.Background(), "k"); hit {
		t.Error("disabled cache should never hit")
	}
}
