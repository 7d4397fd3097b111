package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/wz-splitter/internal/entity"
)

type fakeJournal struct {
	sessions []entity.Session
	pages    map[uuid.UUID][]entity.SessionPage
	from, to time.Time
	err      error
}

func (f *fakeJournal) List(_ context.Context, from, to time.Time) ([]entity.Session, error) {
	f.from, f.to = from, to
	return f.sessions, f.err
}

func (f *fakeJournal) Pages(_ context.Context, id uuid.UUID) ([]entity.SessionPage, error) {
	return f.pages[id], nil
}

func strp(s string) *string { return &s }

func TestSessionsXLSX(t *testing.T) {
	id := uuid.New()
	j := &fakeJournal{
		sessions: []entity.Session{{
			ID: id, Source: "/scans/batch.pdf", Status: "ARCHIVED", Pages: 3, Documents: 1, Dropped: 1,
			ArchivePath: strp("/scans/output/04-03-2025/batch.pdf"), StartedAt: time.Now(),
		}},
		pages: map[uuid.UUID][]entity.SessionPage{id: {
			{SessionID: id, Page: 0, Label: "DOCUMENT_START", Kind: "StartWithoutID", Outcome: entity.OutcomeDropped,
				Reason: strp("document start without identifier")},
			{SessionID: id, Page: 1, Label: "DOCUMENT_START", Kind: "StartWithID", Identifier: strp("WZK"),
				Outcome: entity.OutcomeAssigned, GroupID: strp("WZK")},
			{SessionID: id, Page: 2, Label: "CONTINUATION", Kind: "ContinuationContent",
				Outcome: entity.OutcomeAssigned, GroupID: strp("WZK")},
		}},
	}

	data, err := NewService(j, nil).SessionsXLSX(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !j.from.IsZero() || !j.to.IsZero() {
		t.Fatalf("expected open window, got %v..%v", j.from, j.to)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sessions, err := f.GetRows(SessionsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 || sessions[1][0] != id.String() || sessions[1][2] != "ARCHIVED" {
		t.Fatalf("sessions sheet = %v", sessions)
	}
	pages, err := f.GetRows(PagesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 4 {
		t.Fatalf("pages sheet has %d rows", len(pages))
	}
	if pages[1][2] != "1" || pages[1][8] != entity.OutcomeDropped || pages[1][10] != "document start without identifier" {
		t.Fatalf("first page row = %v", pages[1])
	}
}

func TestSessionsXLSXWindow(t *testing.T) {
	j := &fakeJournal{}
	from := time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC)
	to := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)

	if _, err := NewService(j, nil).SessionsXLSX(context.Background(), &from, &to); err != nil {
		t.Fatal(err)
	}
	if !j.from.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v", j.from)
	}
	if !j.to.Equal(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("to = %v (the last day must be included)", j.to)
	}
}

func TestSessionsXLSXQueryError(t *testing.T) {
	j := &fakeJournal{err: errors.New("db down")}
	if _, err := NewService(j, nil).SessionsXLSX(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
