//go:build !(tesseract && cgo)

package tessapi

import (
	"errors"
	"testing"
)

func TestNewWithoutLibtesseract(t *testing.T) {
	e, err := New(Config{}, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if e != nil {
		t.Fatal("expected no engine")
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.Lang != "eng" || c.PoolSize != 1 {
		t.Fatalf("defaults = %+v", c)
	}
	c = Config{Lang: "pol", PoolSize: 4}.withDefaults()
	if c.Lang != "pol" || c.PoolSize != 4 {
		t.Fatalf("explicit values overridden: %+v", c)
	}
}
