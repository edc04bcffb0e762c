package domain

import (
	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// FailureInfo describes why a file could not be parsed
type FailureInfo struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// ParsingOutcome is the tagged result of parsing one file: either records
// (possibly zero) or a failure, always tied to its path.
type ParsingOutcome struct {
	Path    string
	Format  XrdFormat
	Records []ParsedRecord
	Failure *FailureInfo
}

// Success builds a successful outcome
func Success(path string, format XrdFormat, records []ParsedRecord) ParsingOutcome {
	return ParsingOutcome{Path: path, Format: format, Records: records}
}

// Failure builds a failed outcome from an error
func Failure(path string, err error) ParsingOutcome {
	return ParsingOutcome{
		Path: path,
		Failure: &FailureInfo{
			Code:    apperrors.Classify(err),
			Message: err.Error(),
		},
	}
}

// Succeeded reports whether the outcome carries records rather than a failure
func (o ParsingOutcome) Succeeded() bool {
	return o.Failure == nil
}
