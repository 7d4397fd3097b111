// Package tessapi runs tesseract in-process through libtesseract (cgo).
// It is compiled in only with `-tags tesseract` and cgo enabled; other
// builds get an Engine whose New reports ErrUnavailable, and binaries use
// the CLI engine.
package tessapi

import "errors"

// ErrUnavailable is returned by New when the binary was built without
// libtesseract.
var ErrUnavailable = errors.New("tessapi: built without libtesseract (rebuild with -tags tesseract and CGO_ENABLED=1)")

// Config configures the client pool.
type Config struct {
	Lang        string
	TessdataDir string
	PoolSize    int
}

func (c Config) withDefaults() Config {
	if c.Lang == "" {
		c.Lang = "eng"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1
	}
	return c
}
