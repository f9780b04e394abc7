package dashboard

import (
	"context"
	"testing"
)

func TestFacadeBuildsEngine(t *testing.T) {
	engine, err := NewEngine(Options{})
	if err != nil {
		t.Fatalf("NewEngine returned error: %v", err)
	}
	defer engine.Close()
	if err := engine.Mount(context.Background()); err != nil {
		t.Fatalf("Mount returned error: %v", err)
	}
	if len(engine.Order()) == 0 {
		t.Fatalf("expected default order")
	}
}
