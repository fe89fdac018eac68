package connector

import (
	"context"
	"testing"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	if registry.Supported("postgres") {
		t.Fatalf("empty registry should support nothing")
	}

	registry.Register("postgres", func(ctx context.Context, config Config) (Connector, error) {
		return nil, nil
	})

	if !registry.Supported("postgres") {
		t.Fatalf("expected postgres to be supported")
	}

	if _, err := registry.Open(context.Background(), "mysql", Config{}); err == nil {
		t.Fatalf("expected open of unregistered type to fail")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	if got := quoteIdentifier("users"); got != `"users"` {
		t.Fatalf("unexpected quoting: %s", got)
	}
	if got := quoteIdentifier(`us"ers`); got != `"us""ers"` {
		t.Fatalf("unexpected quoting: %s", got)
	}
}
