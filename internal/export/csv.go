package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/Martyvole/timetracking/internal/store"
)

// ToCSV writes one user's work entries to a CSV file. Timed and panel
// entries share the file; the Kind column tells them apart.
func ToCSV(entries []store.WorkEntry, projects map[string]*store.Project, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Kind", "Project", "Start", "End", "Duration (s)", "Duration", "Panels", "Notes"}); err != nil {
		return err
	}

	for _, e := range entries {
		meta := e.Meta()
		projectName := "Unknown"
		if p, ok := projects[meta.ProjectID]; ok {
			projectName = p.Name
		}

		row := []string{meta.ID, string(e.Kind()), projectName}
		switch e := e.(type) {
		case store.TimeEntry:
			row = append(row,
				e.StartTime.Local().Format(time.RFC3339),
				e.EndTime.Local().Format(time.RFC3339),
				fmt.Sprintf("%d", e.Duration),
				formatDuration(e.Duration),
				"",
			)
		case store.PanelEntry:
			row = append(row,
				e.Date.Local().Format("2006-01-02"),
				"",
				"",
				"",
				fmt.Sprintf("%d", e.Count),
			)
		}
		row = append(row, meta.Notes)

		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
