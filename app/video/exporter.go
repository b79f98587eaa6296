package video

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{"Title", "Author", "Play", "Danmaku", "Pubdate", "Duration", "URL", "Aid", "Bvid"}

type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Run writes the search result list to an xlsx workbook under dir (created
// if absent) and returns the written file path. Write failures are hard
// errors; the export endpoint is synchronous.
func (e *Exporter) Run(videos []Video, keyword string, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return "", fmt.Errorf("failed to resolve header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, v := range videos {
		values := []interface{}{v.Title, v.Author, v.Play, v.Danmaku, v.Pubdate, v.Duration, v.URL, v.Aid, v.Bvid}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return "", fmt.Errorf("failed to resolve cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", row+1, err)
			}
		}
	}

	filename := filepath.Join(dir, fmt.Sprintf("bilibili_%s_search.xlsx", sanitizeFilename(keyword)))
	if err := f.SaveAs(filename); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	if _, err := os.Stat(filename); err != nil {
		return "", fmt.Errorf("workbook not created: %w", err)
	}

	return filename, nil
}

// sanitizeFilename removes characters that are invalid in file names on
// common filesystems.
func sanitizeFilename(name string) string {
	if name == "" {
		return "export"
	}

	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			continue
		default:
			out = append(out, r)
		}
	}

	if len(out) == 0 {
		return "export"
	}

	return string(out)
}
