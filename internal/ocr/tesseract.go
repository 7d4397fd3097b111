package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config configures the tesseract command-line engine.
type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	ArtifactDir   string // where page PNGs are staged; empty -> os.TempDir()
}

// Tesseract runs the tesseract CLI once per recognition request.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

func (t *Tesseract) ExtractText(ctx context.Context, img image.Image, preset Preset) (string, error) {
	f, err := os.CreateTemp(t.cfg.ArtifactDir, "wz-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("stage page image: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			t.logger.Warn("failed to remove staged image", "path", path, "error", err)
		}
	}()
	if err := EncodePNG(f, img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode page image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("stage page image: %w", err)
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, t.logger, t.args(path, preset)...)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", preset.Name, err, Truncate(strings.TrimSpace(string(errb)), 512))
	}
	return Normalize(string(out)), nil
}

// args builds: tesseract <file> stdout -l <lang> [--tessdata-dir d] [--psm n] [--oem m] [-c tessedit_char_whitelist=...]
func (t *Tesseract) args(path string, preset Preset) []string {
	args := []string{path, "stdout", "-l", t.cfg.TesseractLang}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	if preset.PSM >= 0 {
		args = append(args, "--psm", strconv.Itoa(preset.PSM))
	}
	if preset.OEM >= 0 {
		args = append(args, "--oem", strconv.Itoa(preset.OEM))
	}
	if preset.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+preset.Whitelist)
	}
	return args
}
