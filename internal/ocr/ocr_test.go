package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/wz"
)

type fakeRunner struct {
	name   string
	args   []string
	staged bool
	out    string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	if len(args) > 0 {
		_, statErr := os.Stat(args[0])
		f.staged = statErr == nil
	}
	if f.err != nil {
		return nil, []byte("Error opening data file"), f.err
	}
	return []byte(f.out), nil, nil
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 100, 255})
		}
	}
	return img
}

func TestTesseractArgsAndOutput(t *testing.T) {
	r := &fakeRunner{out: "WZ-12/2024/\nAB/003\n"}
	dir := t.TempDir()
	eng := NewTesseract(Config{ArtifactDir: dir, TessdataDir: "/td"}, r, nil)

	got, err := eng.ExtractText(context.Background(), testImage(10, 10), FullPagePreset)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "WZ-12/2024/ AB/003 " {
		t.Fatalf("text = %q", got)
	}
	if r.name != "tesseract" {
		t.Fatalf("binary = %q", r.name)
	}
	if !r.staged {
		t.Fatal("image was not staged before running tesseract")
	}
	want := []string{"stdout", "-l", "eng", "--tessdata-dir", "/td", "--psm", "6", "--oem", "3", "-c", "tessedit_char_whitelist=" + wz.CharWhitelist}
	if strings.Join(r.args[1:], " ") != strings.Join(want, " ") {
		t.Fatalf("args = %v, want %v", r.args[1:], want)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("staged image not cleaned up: %v", entries)
	}
}

func TestTesseractProbeOmitsTuning(t *testing.T) {
	r := &fakeRunner{}
	eng := NewTesseract(Config{ArtifactDir: t.TempDir()}, r, nil)
	if _, err := eng.ExtractText(context.Background(), testImage(4, 4), ProbePreset); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(r.args, " ")
	for _, flag := range []string{"--psm", "--oem", "tessedit_char_whitelist"} {
		if strings.Contains(joined, flag) {
			t.Fatalf("probe args should not contain %s: %v", flag, r.args)
		}
	}
}

func TestTesseractErrorPropagates(t *testing.T) {
	boom := errors.New("exit status 1")
	eng := NewTesseract(Config{ArtifactDir: t.TempDir()}, &fakeRunner{err: boom}, nil)
	_, err := eng.ExtractText(context.Background(), testImage(4, 4), FullPagePreset)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	in := "WZ-1/2\r\nA/3\n\fx"
	got := Normalize(in)
	if got != "WZ-1/2 A/3  x" {
		t.Fatalf("Normalize = %q", got)
	}
	if Normalize("") != "" {
		t.Fatal("empty input should stay empty")
	}
}

func TestCropTopKeepsSource(t *testing.T) {
	img := testImage(20, 100)
	top := CropTop(img, 0.3)
	if top.Bounds().Dx() != 20 || top.Bounds().Dy() != 30 {
		t.Fatalf("crop bounds = %v", top.Bounds())
	}
	if img.Bounds().Dy() != 100 {
		t.Fatal("source image was modified")
	}
	if CropTop(img, 1) != image.Image(img) {
		t.Fatal("fraction 1 should return the image as is")
	}
}

func TestEnhanceScalesAndStretches(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 2))
	for i := range src.Pix {
		src.Pix[i] = 100
	}
	src.Pix[0] = 120
	out := Enhance(src, 2)
	if out.Bounds().Dx() != 8 || out.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	g := Enhance(src, 1).(*image.Gray)
	if g.Pix[0] != 255 || g.Pix[1] != 0 {
		t.Fatalf("contrast not stretched: %v", g.Pix)
	}
}

func TestThoroughUsesSparsePreset(t *testing.T) {
	var seen Preset
	var size image.Rectangle
	next := ExtractorFunc(func(_ context.Context, img image.Image, p Preset) (string, error) {
		seen, size = p, img.Bounds()
		return "WZK", nil
	})
	got, err := NewThorough(next).Recognize(context.Background(), testImage(10, 5))
	if err != nil || got != "WZK" {
		t.Fatalf("Recognize = %q, %v", got, err)
	}
	if seen.PSM != 11 || seen.OEM != 1 {
		t.Fatalf("preset = %v", seen)
	}
	if size.Dx() != 20 || size.Dy() != 10 {
		t.Fatalf("image not upscaled: %v", size)
	}
}

func TestLoadPresets(t *testing.T) {
	got, err := LoadPresets("")
	if err != nil || len(got) != 4 {
		t.Fatalf("default presets = %v, %v", got, err)
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	if err := os.WriteFile(good, []byte(`[{"name":"a","psm":6,"oem":3},{"name":"b","psm":7,"oem":1,"whitelist":"WZ"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = LoadPresets(good)
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	if len(got) != 2 || got[0].Whitelist != wz.CharWhitelist || got[1].Whitelist != "WZ" {
		t.Fatalf("presets = %+v", got)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"name":"a","psm":42,"oem":3}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPresets(bad); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSerializedAllowsOneCallAtATime(t *testing.T) {
	var active, peak int32
	next := ExtractorFunc(func(context.Context, image.Image, Preset) (string, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return "", nil
	})
	s := Serialized(next)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.ExtractText(context.Background(), nil, ProbePreset)
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("peak concurrency = %d", peak)
	}
}
