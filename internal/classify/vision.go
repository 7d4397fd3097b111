package classify

import (
	"context"
	"fmt"
	"image"

	"github.com/joseph-ayodele/wz-splitter/constants"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/llm"
	"github.com/joseph-ayodele/wz-splitter/internal/ocr"
)

// Vision classifies pages with a vision-capable LLM. Only the header is sent.
type Vision struct {
	judge llm.PageJudge
}

func NewVision(judge llm.PageJudge) *Vision {
	return &Vision{judge: judge}
}

func (v *Vision) Classify(ctx context.Context, img image.Image) (Result, error) {
	verdict, _, err := v.judge.JudgePage(ctx, llm.JudgeRequest{
		Image:     ocr.CropTop(img, 0.3),
		PageIndex: common.PageFromContext(ctx),
		Source:    common.SourceFromContext(ctx),
	})
	if err != nil {
		return Result{}, err
	}
	label, ok := constants.CanonicalLabel(verdict.Label)
	if !ok {
		return Result{}, fmt.Errorf("vision verdict: unknown label %q", verdict.Label)
	}
	return Result{Label: label, Confidence: verdict.Confidence, Hint: verdict.Identifier}, nil
}
