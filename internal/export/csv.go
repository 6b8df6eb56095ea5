package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/sadopc/resttrackr/internal/model"
)

type completionRow struct {
	activity model.Activity
	at       time.Time
}

// ToCSV writes one row per completion event, oldest first, into dir under
// CompletionsFilename and returns the full path.
func ToCSV(activities []model.Activity, dir string, now time.Time) (string, error) {
	path := filepath.Join(dir, CompletionsFilename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write([]string{"Activity ID", "Activity", "Type", "Completed At", "Duration (min)", "Duration", "Archived"}); err != nil {
		return "", err
	}

	var rows []completionRow
	for _, a := range activities {
		for _, at := range a.CompletedDates {
			rows = append(rows, completionRow{activity: a, at: at})
		}
	}
	slices.SortStableFunc(rows, func(x, y completionRow) int { return x.at.Compare(y.at) })

	for _, r := range rows {
		row := []string{
			r.activity.ID,
			r.activity.Name,
			string(r.activity.Type),
			r.at.Local().Format(time.RFC3339),
			strconv.Itoa(r.activity.Duration),
			FormatMinutes(r.activity.Duration),
			strconv.FormatBool(!r.activity.IsActive),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

// FormatMinutes renders a duration in minutes as "45 min" or "1h 30m".
// Zero renders as an empty string.
func FormatMinutes(m int) string {
	switch {
	case m <= 0:
		return ""
	case m < 60:
		return fmt.Sprintf("%d min", m)
	case m%60 == 0:
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}
