package cygnss

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// productDir returns the root directory for this reader's product level and
// version.
func (r *Reader) productDir() string {
	return filepath.Join(r.dataDir, r.level.String(), r.version)
}

// dailyDir returns the directory holding one day of granules, following the
// LEVEL/VERSION/YYYY/MM/DD layout used by the download client.
func (r *Reader) dailyDir(date time.Time) string {
	return filepath.Join(r.productDir(),
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		fmt.Sprintf("%02d", date.Day()),
	)
}

// DailyFiles lists the granules available for one day, sorted by name. A
// missing day directory yields an empty list.
func (r *Reader) DailyFiles(date time.Time) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dailyDir(date), "*.nc"))
	if err != nil {
		return nil, fmt.Errorf("listing granules for %s: %w", date.Format("2006-01-02"), err)
	}
	sort.Strings(matches)
	return matches, nil
}

// FilesForRange lists all granules for an inclusive date range, in day then
// name order.
func (r *Reader) FilesForRange(start, end time.Time) ([]string, error) {
	var files []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		daily, err := r.DailyFiles(day)
		if err != nil {
			return nil, err
		}
		files = append(files, daily...)
	}
	return files, nil
}
