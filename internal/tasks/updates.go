package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadDump Phase = iota
	ImportEntries
	ExportEntries
	ScanDuplicates
	WriteReports
)

func (p Phase) String() string {
	switch p {
	case ReadDump:
		return "read_dump"
	case ImportEntries:
		return "import_entries"
	case ExportEntries:
		return "export_entries"
	case ScanDuplicates:
		return "scan_duplicates"
	case WriteReports:
		return "write_reports"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func readDumpUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadDump,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Read %d records from dump", total),
	}
}

func importedUpdate(step, total int, r Record) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportEntries,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, r.Artist, r.Title),
	}
}

func skippedUpdate(step, total int, r Record, closest string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportEntries,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] = %s - %s (duplicate of %s)", step, total, r.Artist, r.Title, closest),
	}
}

func importFailedUpdate(step, total int, r Record, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportEntries,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s - %s: %v", step, total, r.Artist, r.Title, err),
	}
}

func exportedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportEntries,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Exported %d entries", total),
	}
}

func scanningUpdate(step, total int, scorer string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanDuplicates,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Scanning with %s scorer...", step, total, scorer),
	}
}

func reportWrittenUpdate(step, total int, res ReportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteReports,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s: %d pairs (%d files)", step, total, res.Scorer, res.Pairs, len(res.Files)),
		Data:    res,
	}
}

func reportFailedUpdate(step, total int, res ReportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteReports,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Scorer, res.Error),
		Data:    res,
	}
}
