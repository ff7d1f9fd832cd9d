package ui

import (
	"fmt"
	"io"

	"github.com/bamsammich/cloudmig/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 48,917  size 2.1 GB  avg 41 MB/s  time 3m 17s  skipped 12  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.FilesFailed > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  files %s  size %s  avg %s  time %s",
		icon,
		FormatCount(snap.FilesSucceeded),
		FormatBytes(snap.BytesCopied),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
	)

	if snap.FilesSkipped > 0 {
		base += "  skipped " + FormatCount(snap.FilesSkipped)
	}
	if snap.FilesHydrated > 0 || snap.FilesDehydrated > 0 {
		base += fmt.Sprintf("  hydrated %s  dehydrated %s",
			FormatCount(snap.FilesHydrated), FormatCount(snap.FilesDehydrated))
	}

	return base + fmt.Sprintf("  errors %d", snap.FilesFailed)
}

// WriteErrors prints every collected error line, one per line, under a header.
func WriteErrors(w io.Writer, errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(w, "%d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
