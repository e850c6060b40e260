package workflows

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultFileName is substituted when sanitization collapses a name to
	// nothing usable.
	DefaultFileName = "workflow.json"

	// MaxFileSizeBytes caps uploaded workflow files at 1 MiB. The bound is
	// closed - a file of exactly this size is accepted.
	MaxFileSizeBytes = 1 << 20

	jsonSuffix = ".json"
)

var (
	unsafeCharsPattern = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	dotRunPattern      = regexp.MustCompile(`\.{2,}`)
	fileNamePattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+\.json$`)
)

// SanitizeFileName normalizes an uploaded file name to a safe form: path
// separators and characters outside [A-Za-z0-9_.-] are stripped, dot runs are
// collapsed, leading and trailing dots are removed, and the result always ends
// in ".json". Names that collapse to nothing become DefaultFileName. The
// function is total and idempotent - it never fails, only normalizes.
func SanitizeFileName(raw string) string {
	name := strings.NewReplacer("/", "", "\\", "").Replace(raw)
	name = unsafeCharsPattern.ReplaceAllString(name, "")

	stem := strings.TrimSuffix(name, jsonSuffix)
	stem = dotRunPattern.ReplaceAllString(stem, ".")
	stem = strings.Trim(stem, ".")
	if stem == "" {
		return DefaultFileName
	}
	return stem + jsonSuffix
}

// ValidateWorkflowFile checks the file name, size and content of an uploaded
// workflow definition. Every check runs independently and all violations are
// collected, so one response can report every problem at once. An empty slice
// means the file is valid.
func (s *WorkflowsService) ValidateWorkflowFile(fileName string, content []byte, sizeBytes int64) []string {
	var errs []string

	if fileName == "" {
		errs = append(errs, "file name is required")
	} else {
		if strings.ContainsAny(fileName, `/\`) {
			errs = append(errs, "file name must not contain path separators")
		}
		if !strings.HasSuffix(fileName, jsonSuffix) {
			errs = append(errs, "file name must end in .json")
		}
		if !fileNamePattern.MatchString(fileName) {
			errs = append(errs, "file name may only contain letters, numbers, hyphens and underscores before the .json extension")
		}
	}

	if sizeBytes > MaxFileSizeBytes {
		errs = append(errs, fmt.Sprintf("file size %d exceeds the maximum of %d bytes", sizeBytes, MaxFileSizeBytes))
	}

	if !json.Valid(content) {
		errs = append(errs, "file content is not valid JSON")
	} else if s.schema != nil {
		if err := s.validateAgainstSchema(content); err != nil {
			errs = append(errs, fmt.Sprintf("workflow definition does not match the expected schema: %v", err))
		}
	}

	return errs
}
