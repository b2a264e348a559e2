// ABOUTME: Tests for the shared store rules
// ABOUTME: Verifies size checks, filter matching and result ordering
package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/jerbio/BigDataTiler/internal/models"
)

func record(id string, split int, parent string, created time.Time) *models.LogChange {
	r := models.NewLogChange(models.LogMeta{
		UserID:         "user_1",
		TypeOfEvent:    "ScheduleUpdate",
		TimeOfCreation: created,
	})
	r.ID = id
	r.SplitIndex = split
	if parent != "" {
		r.ParentLogID = &parent
	}
	return r
}

func TestCheckSize(t *testing.T) {
	r := &models.LogChange{ZippedLog: make([]byte, 101)}

	if err := CheckSize(r, 101); err != nil {
		t.Errorf("CheckSize(at limit) error = %v", err)
	}

	err := CheckSize(r, 100)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("CheckSize() error = %v, want ErrTooLarge", err)
	}
	var tooLarge *TooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("error %T is not *TooLargeError", err)
	}
	if tooLarge.Size != 101 || tooLarge.Limit != 100 {
		t.Errorf("TooLargeError = %+v, want {101 100}", *tooLarge)
	}
}

func TestFilter_Matches(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	owner := record("owner", 0, "", base)
	child := record("child", 1, "owner", base)
	other := record("other", 0, "", base.Add(time.Hour))
	other.TypeOfEvent = "Preview"

	tests := []struct {
		name   string
		filter Filter
		record *models.LogChange
		want   bool
	}{
		{"empty filter", Filter{}, child, true},
		{"group owner itself", Filter{GroupOwnerID: "owner"}, owner, true},
		{"group member", Filter{GroupOwnerID: "owner"}, child, true},
		{"other group", Filter{GroupOwnerID: "owner"}, other, false},
		{"type match", Filter{TypeOfEvent: "Preview"}, other, true},
		{"type mismatch", Filter{TypeOfEvent: "Preview"}, owner, false},
		{"from is inclusive", Filter{CreatedFrom: base}, owner, true},
		{"before from", Filter{CreatedFrom: base.Add(time.Minute)}, owner, false},
		{"to is exclusive", Filter{CreatedTo: base}, owner, false},
		{"before to", Filter{CreatedTo: base.Add(time.Millisecond)}, owner, true},
		{"owners only keeps owner", Filter{OwnersOnly: true}, owner, true},
		{"owners only drops child", Filter{OwnersOnly: true}, child, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.record); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortRecords(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := record("a", 2, "x", base)
	b := record("b", 0, "", base.Add(2*time.Hour))
	c := record("c", 1, "x", base.Add(time.Hour))

	bySplit := []*models.LogChange{a, b, c}
	SortRecords(bySplit, OrderBySplitIndex)
	if bySplit[0] != b || bySplit[1] != c || bySplit[2] != a {
		t.Errorf("split order = %s %s %s, want b c a", bySplit[0].ID, bySplit[1].ID, bySplit[2].ID)
	}

	byCreated := []*models.LogChange{a, c, b}
	SortRecords(byCreated, OrderByCreatedDesc)
	if byCreated[0] != b || byCreated[1] != c || byCreated[2] != a {
		t.Errorf("created order = %s %s %s, want b c a", byCreated[0].ID, byCreated[1].ID, byCreated[2].ID)
	}
}

func TestLimit(t *testing.T) {
	records := []*models.LogChange{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	tests := []struct {
		limit int
		want  int
	}{
		{0, 3},
		{-1, 3},
		{2, 2},
		{5, 3},
	}
	for _, tt := range tests {
		if got := len(Limit(records, tt.limit)); got != tt.want {
			t.Errorf("Limit(%d) = %d records, want %d", tt.limit, got, tt.want)
		}
	}
}
