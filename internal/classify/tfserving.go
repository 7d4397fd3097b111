package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/wz-splitter/internal/httpjson"
)

type TFServingConfig struct {
	URL         string // e.g. http://localhost:8501/v1/models/wz:predict
	InputWidth  int
	InputHeight int
	Channels    int // 1 for the grayscale header model
	Threshold   float32
	Timeout     time.Duration
}

// TFServing calls a TensorFlow Serving REST predict endpoint hosting the
// header model and reads a single sigmoid output.
type TFServing struct {
	cfg    TFServingConfig
	http   *httpjson.Client
	logger *slog.Logger
}

func NewTFServing(cfg TFServingConfig, logger *slog.Logger) *TFServing {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.InputWidth <= 0 {
		cfg.InputWidth = DefaultInputWidth
	}
	if cfg.InputHeight <= 0 {
		cfg.InputHeight = DefaultInputHeight
	}
	if cfg.Channels != 3 {
		cfg.Channels = 1
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := httpjson.New(&http.Client{Timeout: cfg.Timeout}, nil, logger)
	return &TFServing{cfg: cfg, http: hc, logger: logger}
}

func (t *TFServing) Classify(ctx context.Context, img image.Image) (Result, error) {
	body := map[string]any{
		"instances": [][][][]float32{HeaderTensor(img, t.cfg.InputWidth, t.cfg.InputHeight, t.cfg.Channels)},
	}
	raw, err := t.http.Post(ctx, t.cfg.URL, body)
	if err != nil {
		return Result{}, fmt.Errorf("tfserving predict: %w", err)
	}
	var resp struct {
		Predictions [][]float32 `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Result{}, fmt.Errorf("decode tfserving response: %w", err)
	}
	if len(resp.Predictions) == 0 || len(resp.Predictions[0]) == 0 {
		return Result{}, fmt.Errorf("tfserving returned no predictions")
	}
	return FromProbability(resp.Predictions[0][0], t.cfg.Threshold), nil
}
