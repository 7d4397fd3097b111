// Package aggregate groups evaluated pages into delivery notes.
//
// The engine is a left fold over evaluations in page order. The only state
// carried between pages is the identifier of the most recent resolved
// document start.
package aggregate

import "github.com/joseph-ayodele/wz-splitter/internal/evaluate"

// State is the accumulator threaded through the fold.
type State struct {
	current string
	has     bool
}

// Current returns the carried identifier, if any.
func (s State) Current() (string, bool) { return s.current, s.has }

// ActionKind says what Step did with a page.
type ActionKind int

const (
	// Assign appends the page to a group.
	Assign ActionKind = iota + 1
	// Skip ignores a blank continuation page.
	Skip
	// Drop leaves the page out of every group.
	Drop
)

// Drop reasons.
const (
	ReasonUnresolvedStart = "document start without identifier"
	ReasonNoCurrentID     = "continuation before any identified document start"
	ReasonUnknownPageKind = "unknown page kind"
)

// Action is the effect of one Step.
type Action struct {
	Kind       ActionKind
	Identifier string // group the page was assigned to
	Reason     string // why the page was dropped
}

// Step applies one evaluation to the state.
func Step(s State, ev evaluate.Evaluation) (State, Action) {
	switch ev.Kind {
	case evaluate.StartWithID:
		return State{current: ev.Identifier, has: true}, Action{Kind: Assign, Identifier: ev.Identifier}
	case evaluate.StartWithoutID:
		return s, Action{Kind: Drop, Reason: ReasonUnresolvedStart}
	case evaluate.ContinuationBlank:
		return s, Action{Kind: Skip}
	case evaluate.ContinuationContent:
		if !s.has {
			return s, Action{Kind: Drop, Reason: ReasonNoCurrentID}
		}
		return s, Action{Kind: Assign, Identifier: s.current}
	default:
		return s, Action{Kind: Drop, Reason: ReasonUnknownPageKind}
	}
}

// Group is the ordered page list of one identifier.
type Group struct {
	ID    string
	Pages []int
}

// Dropped records a page left out of every group.
type Dropped struct {
	Page   int
	Reason string
}

// Result is the outcome of a fold. Groups are in first-seen order.
type Result struct {
	Groups  []Group
	Dropped []Dropped
	Blank   []int
}

// Fold runs Step over evals from the initial state.
func Fold(evals []evaluate.Evaluation) Result {
	var (
		res   Result
		state State
		index = map[string]int{}
	)
	for _, ev := range evals {
		var act Action
		state, act = Step(state, ev)
		switch act.Kind {
		case Assign:
			i, ok := index[act.Identifier]
			if !ok {
				i = len(res.Groups)
				index[act.Identifier] = i
				res.Groups = append(res.Groups, Group{ID: act.Identifier})
			}
			res.Groups[i].Pages = append(res.Groups[i].Pages, ev.Page)
		case Skip:
			res.Blank = append(res.Blank, ev.Page)
		case Drop:
			res.Dropped = append(res.Dropped, Dropped{Page: ev.Page, Reason: act.Reason})
		}
	}
	return res
}

// Assigned counts pages placed in a group.
func (r Result) Assigned() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Pages)
	}
	return n
}

// Group returns the group for id.
func (r Result) Group(id string) (Group, bool) {
	for _, g := range r.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// DroppedPages lists the dropped page indexes in order.
func (r Result) DroppedPages() []int {
	out := make([]int, len(r.Dropped))
	for i, d := range r.Dropped {
		out[i] = d.Page
	}
	return out
}
