package llm

import (
	"context"
	"image"
)

// PageVerdict is the normalized shape we want from a vision model.
type PageVerdict struct {
	Label      string  `json:"label"`                // DOCUMENT_START | CONTINUATION
	Confidence float32 `json:"confidence"`           // 0..1
	Identifier string  `json:"identifier,omitempty"` // WZ code if the model could read one
	Reason     string  `json:"reason,omitempty"`
}

type JudgeRequest struct {
	Image     image.Image
	PageIndex int
	Source    string
}

// PageJudge is the interface the classifier adapter depends on.
type PageJudge interface {
	JudgePage(ctx context.Context, req JudgeRequest) (PageVerdict, []byte /*rawJSON*/, error)
}
