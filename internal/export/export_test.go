package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Martyvole/timetracking/internal/store"
)

func sampleData() ([]store.WorkEntry, map[string]*store.Project) {
	now := time.Date(2024, 6, 3, 16, 0, 0, 0, time.UTC)
	tid := "task-1"

	entries := []store.WorkEntry{
		store.TimeEntry{
			EntryMeta: store.EntryMeta{
				ID: "e1", UserID: "u1", ProjectID: "p1", Notes: "worked on feature",
			},
			StartTime: now.Add(-1 * time.Hour),
			EndTime:   now,
			Duration:  3600,
		},
		store.TimeEntry{
			EntryMeta: store.EntryMeta{
				ID: "e2", UserID: "u1", ProjectID: "p2", TaskID: &tid,
			},
			StartTime: now.Add(-30 * time.Minute),
			EndTime:   now,
			Duration:  1800,
		},
		store.PanelEntry{
			EntryMeta: store.EntryMeta{
				ID: "e3", UserID: "u1", ProjectID: "p1",
			},
			Date:  now,
			Count: 14,
		},
	}

	projects := map[string]*store.Project{
		"p1": {ID: "p1", UserID: "u1", Name: "Project Alpha", Color: "#FF0000"},
		"p2": {ID: "p2", UserID: "u1", Name: "Project Beta", Color: "#00FF00"},
	}

	return entries, projects
}

// ============================================================
// CSV export
// ============================================================

func TestToCSV(t *testing.T) {
	entries, projects := sampleData()
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := ToCSV(entries, projects, path); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 { // header + 3 entries
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][1] != "Kind" {
		t.Fatalf("unexpected header: %v", rows[0])
	}

	// Timed row carries a formatted duration.
	if rows[1][2] != "Project Alpha" || rows[1][6] != "01:00:00" {
		t.Fatalf("unexpected timed row: %v", rows[1])
	}
	if rows[1][8] != "worked on feature" {
		t.Fatalf("notes missing: %v", rows[1])
	}

	// Panel row carries a count and no duration.
	panelRow := rows[3]
	if panelRow[1] != string(store.KindPanels) || panelRow[7] != "14" {
		t.Fatalf("unexpected panel row: %v", panelRow)
	}
	if panelRow[5] != "" || panelRow[6] != "" {
		t.Fatalf("panel row should have no duration: %v", panelRow)
	}
}

func TestToCSVUnknownProject(t *testing.T) {
	entries, _ := sampleData()
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := ToCSV(entries, map[string]*store.Project{}, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Unknown") {
		t.Fatal("missing projects should render as Unknown")
	}
}

// ============================================================
// Snapshot files
// ============================================================

func TestSnapshotFileRoundTrip(t *testing.T) {
	snap := &store.Snapshot{
		Projects: []store.SnapshotProject{{ID: "p1", Name: "Alpha", Color: "#FF0000"}},
		Entries: []store.SnapshotEntry{{
			Type:      store.KindHourly,
			ProjectID: "p1",
			StartTime: "2024-06-03T15:00:00Z",
			EndTime:   "2024-06-03T16:00:00Z",
			Duration:  3600,
		}},
	}
	path := filepath.Join(t.TempDir(), "backup.json")

	if err := WriteSnapshot(snap, path); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Projects) != 1 || got.Projects[0].Name != "Alpha" {
		t.Fatalf("projects lost: %+v", got.Projects)
	}
	if len(got.Entries) != 1 || got.Entries[0].Duration != 3600 {
		t.Fatalf("entries lost: %+v", got.Entries)
	}
}

func TestReadSnapshotBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte(`{"unrelated": true}`), 0o644)

	if _, err := ReadSnapshot(path); err == nil {
		t.Fatal("expected error for unrecognized document")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3661, "01:01:01"},
		{36000, "10:00:00"},
	}
	for _, c := range cases {
		if got := formatDuration(c.secs); got != c.want {
			t.Fatalf("formatDuration(%d) = %q, want %q", c.secs, got, c.want)
		}
	}
}
