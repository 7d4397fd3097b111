// Package evaluate classifies one page and resolves its delivery-note identifier.
package evaluate

import "github.com/joseph-ayodele/wz-splitter/constants"

// Kind is the outcome of evaluating a page.
type Kind int

const (
	// StartWithID is a document start whose identifier was read.
	StartWithID Kind = iota + 1
	// StartWithoutID is a document start where every extraction attempt failed.
	StartWithoutID
	// ContinuationBlank is a continuation page without meaningful text.
	ContinuationBlank
	// ContinuationContent is a continuation page with text on it.
	ContinuationContent
)

func (k Kind) String() string {
	switch k {
	case StartWithID:
		return "start_with_id"
	case StartWithoutID:
		return "start_without_id"
	case ContinuationBlank:
		return "continuation_blank"
	case ContinuationContent:
		return "continuation_content"
	default:
		return "unknown"
	}
}

// Evaluation is produced once per page, in page order.
type Evaluation struct {
	Page       int // 0-based position in the source
	Kind       Kind
	Identifier string  // set only for StartWithID
	Confidence float32 // classifier confidence for the label
	Attempt    string  // extraction attempt that resolved the identifier
	Attempts   int     // extraction attempts run for a document start
	TextLength int     // probe text length for continuation pages
}

// Label maps the kind back onto the classifier label.
func (e Evaluation) Label() constants.PageLabel {
	if e.Kind == StartWithID || e.Kind == StartWithoutID {
		return constants.DocumentStart
	}
	return constants.Continuation
}

func (e Evaluation) Blank() bool { return e.Kind == ContinuationBlank }

// ID returns the resolved identifier, if any.
func (e Evaluation) ID() (string, bool) {
	if e.Kind != StartWithID {
		return "", false
	}
	return e.Identifier, true
}

// Started builds a StartWithID evaluation.
func Started(page int, id string) Evaluation {
	return Evaluation{Page: page, Kind: StartWithID, Identifier: id}
}

// Unresolved builds a StartWithoutID evaluation.
func Unresolved(page int) Evaluation {
	return Evaluation{Page: page, Kind: StartWithoutID}
}

// BlankPage builds a ContinuationBlank evaluation.
func BlankPage(page int) Evaluation {
	return Evaluation{Page: page, Kind: ContinuationBlank}
}

// Content builds a ContinuationContent evaluation.
func Content(page int) Evaluation {
	return Evaluation{Page: page, Kind: ContinuationContent}
}
