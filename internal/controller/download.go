package controller

import (
	"path"
	"strings"
)

// DownloadSuffix is appended to the stem of an uploaded file to name its result.
const DownloadSuffix = "-esp.csv"

// DownloadName derives the processed file name from an uploaded file path:
// the final extension is dropped and DownloadSuffix appended.
// "data.csv" becomes "data-esp.csv".
func DownloadName(filePath string) string {
	base := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + DownloadSuffix
}
