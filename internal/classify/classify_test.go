package classify

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joseph-ayodele/wz-splitter/constants"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/llm"
	"github.com/joseph-ayodele/wz-splitter/internal/ocr"
)

func TestFromProbability(t *testing.T) {
	tests := []struct {
		p     float32
		label constants.PageLabel
		conf  float32
	}{
		{0.5, constants.DocumentStart, 0.5},
		{0.9, constants.DocumentStart, 0.9},
		{0.2, constants.Continuation, 0.8},
		{0, constants.Continuation, 1},
	}
	for _, tt := range tests {
		got := FromProbability(tt.p, DefaultThreshold)
		if got.Label != tt.label || abs(got.Confidence-tt.conf) > 1e-6 {
			t.Errorf("FromProbability(%v) = %+v", tt.p, got)
		}
	}
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func TestHeaderTensorUsesTopQuarter(t *testing.T) {
	// white top quarter, black below
	img := image.NewGray(image.Rect(0, 0, 40, 400))
	for y := 0; y < 100; y++ {
		for x := 0; x < 40; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	tensor := HeaderTensor(img, 8, 4, 1)
	if len(tensor) != 4 || len(tensor[0]) != 8 || len(tensor[0][0]) != 1 {
		t.Fatalf("shape = %dx%dx%d", len(tensor), len(tensor[0]), len(tensor[0][0]))
	}
	for y := range tensor {
		for x := range tensor[y] {
			if tensor[y][x][0] < 0.99 {
				t.Fatalf("pixel (%d,%d) = %v, crop leaked below the header", x, y, tensor[y][x][0])
			}
		}
	}
	if rgb := HeaderTensor(img, 2, 2, 3); len(rgb[0][0]) != 3 {
		t.Fatalf("rgb channels = %d", len(rgb[0][0]))
	}
}

func TestTFServingClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Instances [][][][]float32 `json:"instances"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.Instances) != 1 || len(req.Instances[0]) != 219 || len(req.Instances[0][0]) != 620 {
			t.Errorf("unexpected tensor shape")
		}
		_, _ = w.Write([]byte(`{"predictions":[[0.83]]}`))
	}))
	defer srv.Close()

	c := NewTFServing(TFServingConfig{URL: srv.URL}, nil)
	res, err := c.Classify(context.Background(), image.NewGray(image.Rect(0, 0, 100, 200)))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.Label != constants.DocumentStart || abs(res.Confidence-0.83) > 1e-6 {
		t.Fatalf("result = %+v", res)
	}
}

func TestTFServingEmptyPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()
	if _, err := NewTFServing(TFServingConfig{URL: srv.URL}, nil).Classify(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4))); err == nil {
		t.Fatal("expected error for empty predictions")
	}
}

type stubJudge struct {
	verdict llm.PageVerdict
	height  int
	req     llm.JudgeRequest
}

func (s *stubJudge) JudgePage(_ context.Context, req llm.JudgeRequest) (llm.PageVerdict, []byte, error) {
	s.height = req.Image.Bounds().Dy()
	s.req = req
	return s.verdict, nil, nil
}

func TestVisionClassify(t *testing.T) {
	j := &stubJudge{verdict: llm.PageVerdict{Label: "NO_WZ", Confidence: 0.7}}
	res, err := NewVision(j).Classify(context.Background(), image.NewGray(image.Rect(0, 0, 10, 100)))
	if err != nil {
		t.Fatal(err)
	}
	if res.Label != constants.Continuation || j.height != 30 {
		t.Fatalf("result = %+v, header height = %d", res, j.height)
	}

	j.verdict.Label = "???"
	if _, err := NewVision(j).Classify(context.Background(), image.NewGray(image.Rect(0, 0, 10, 100))); err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestVisionCarriesPageAndIdentifier(t *testing.T) {
	j := &stubJudge{verdict: llm.PageVerdict{Label: "DOCUMENT_START", Confidence: 0.9, Identifier: "WZ-7/2024/KR/12"}}
	ctx := common.WithPage(common.WithSource(context.Background(), "/in/scan.pdf"), 4)

	res, err := NewVision(j).Classify(ctx, image.NewGray(image.Rect(0, 0, 10, 100)))
	if err != nil {
		t.Fatal(err)
	}
	if j.req.PageIndex != 4 || j.req.Source != "/in/scan.pdf" {
		t.Fatalf("request page=%d source=%q", j.req.PageIndex, j.req.Source)
	}
	if res.Label != constants.DocumentStart || res.Hint != "WZ-7/2024/KR/12" {
		t.Fatalf("result = %+v", res)
	}

	if _, err := NewVision(j).Classify(context.Background(), image.NewGray(image.Rect(0, 0, 10, 100))); err != nil {
		t.Fatal(err)
	}
	if j.req.PageIndex != -1 || j.req.Source != "" {
		t.Fatalf("bare context request page=%d source=%q", j.req.PageIndex, j.req.Source)
	}
}

func TestHeaderClassifier(t *testing.T) {
	tests := []struct {
		text  string
		label constants.PageLabel
	}{
		{"DOKUMENT WZ-3/2024/MAG/12", constants.DocumentStart},
		{"WZ NR", constants.DocumentStart},
		{"POZ 4 5 6", constants.Continuation},
	}
	for _, tt := range tests {
		ext := ocr.ExtractorFunc(func(context.Context, image.Image, ocr.Preset) (string, error) { return tt.text, nil })
		res, err := NewHeader(ext, 0.3).Classify(context.Background(), image.NewGray(image.Rect(0, 0, 10, 10)))
		if err != nil {
			t.Fatal(err)
		}
		if res.Label != tt.label {
			t.Errorf("%q -> %s, want %s", tt.text, res.Label, tt.label)
		}
	}
}
