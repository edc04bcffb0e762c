package domain

import (
	"fmt"
	"strings"
)

// Severity grades a quality finding on a parsed record
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// Finding is one quality observation about a record. Findings are data,
// never errors.
type Finding struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// RecordReport collects the findings of a single record
type RecordReport struct {
	RecordID   string    `json:"record_id"`
	SourceFile string    `json:"source_file"`
	Points     int       `json:"points"`
	Findings   []Finding `json:"findings"`
}

// Has reports whether the record has at least one finding of the severity
func (r RecordReport) Has(severity Severity) bool {
	for _, f := range r.Findings {
		if f.Severity == severity {
			return true
		}
	}
	return false
}

// Count returns how many findings of the severity the record has
func (r RecordReport) Count(severity Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == severity {
			n++
		}
	}
	return n
}

// FailedFile is a manifest entry for a file whose parse failed
type FailedFile struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DuplicateEntry marks a record whose series equals an earlier record's
type DuplicateEntry struct {
	RecordID    string `json:"record_id"`
	SourceFile  string `json:"source_file"`
	DuplicateOf string `json:"duplicate_of"`
	Hash        string `json:"hash"`
}

// DatabaseReport aggregates a whole directory build
type DatabaseReport struct {
	Directory     string           `json:"directory"`
	TotalFiles    int              `json:"total_files"`
	ParsedFiles   int              `json:"parsed_files"`
	TotalRecords  int              `json:"total_records"`
	CriticalCount int              `json:"critical_count"`
	ErrorCount    int              `json:"error_count"`
	WarningCount  int              `json:"warning_count"`
	FailedFiles   []FailedFile     `json:"failed_files"`
	Records       []RecordReport   `json:"records"`
	Duplicates    []DuplicateEntry `json:"duplicates,omitempty"`
}

// AddRecordReport appends a record report and updates the severity counts.
// Counts are per record: a record with two warnings counts once.
func (d *DatabaseReport) AddRecordReport(r RecordReport) {
	d.Records = append(d.Records, r)
	d.TotalRecords++
	if r.Has(SeverityCritical) {
		d.CriticalCount++
	}
	if r.Has(SeverityError) {
		d.ErrorCount++
	}
	if r.Has(SeverityWarning) {
		d.WarningCount++
	}
}

// AddFailure appends a failed file to the manifest
func (d *DatabaseReport) AddFailure(path string, failure FailureInfo) {
	d.FailedFiles = append(d.FailedFiles, FailedFile{
		Path:    path,
		Code:    string(failure.Code),
		Message: failure.Message,
	})
}

// FailedPaths lists the paths of every failed file
func (d *DatabaseReport) FailedPaths() []string {
	paths := make([]string, 0, len(d.FailedFiles))
	for _, f := range d.FailedFiles {
		paths = append(paths, f.Path)
	}
	return paths
}

// String renders the report for a curator
func (d *DatabaseReport) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Database report for %s\n", d.Directory)
	fmt.Fprintf(&b, "  files: %d total, %d parsed, %d failed\n",
		d.TotalFiles, d.ParsedFiles, len(d.FailedFiles))
	fmt.Fprintf(&b, "  records: %d (%d critical, %d error, %d warning)\n",
		d.TotalRecords, d.CriticalCount, d.ErrorCount, d.WarningCount)

	if len(d.FailedFiles) > 0 {
		b.WriteString("\nFailed files:\n")
		for _, f := range d.FailedFiles {
			fmt.Fprintf(&b, "  - %s [%s] %s\n", f.Path, f.Code, f.Message)
		}
	}

	if len(d.Duplicates) > 0 {
		b.WriteString("\nDuplicate patterns:\n")
		for _, dup := range d.Duplicates {
			fmt.Fprintf(&b, "  - %s duplicates %s\n", dup.SourceFile, dup.DuplicateOf)
		}
	}

	flagged := false
	for _, r := range d.Records {
		if len(r.Findings) == 0 {
			continue
		}
		if !flagged {
			b.WriteString("\nRecord findings:\n")
			flagged = true
		}
		fmt.Fprintf(&b, "  %s (%d points)\n", r.SourceFile, r.Points)
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "    [%s] %s\n", f.Severity, f.Message)
		}
	}

	return b.String()
}
