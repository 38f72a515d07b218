package ops

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

// ImportMode controls what happens to bad lines and id collisions.
type ImportMode string

const (
	ImportModeError ImportMode = "error" // any bad line or collision aborts before saving
	ImportModeSkip  ImportMode = "skip"  // bad lines and collisions are reported and skipped
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
	Source   Source        `json:"source,omitempty"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line  int
	entry entry.Entry
}

// Import saves the entries of a JSONL export through the layer, so they
// land wherever Save would put them. Local storage keeps the ids from the
// file; the API assigns new ones. Entries whose id already exists in the
// serving store are collisions. Durations are normalized to HH:MM:SS.
func (l *Layer) Import(ctx context.Context, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, skip")
	}

	if err := ValidatePath(input.Path, PathCheckRead, l.paths); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.As(err).Code != errors.ErrInternal {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, problems := parseExportFile(file)

	existing, err := l.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	pending, collisions := splitCollisions(records, existing.Items)
	problems = append(problems, collisions...)

	out := &ImportOutput{Errors: []ImportError{}}
	if input.Mode == ImportModeError && len(problems) > 0 {
		out.Errors = problems
		return out, nil
	}
	out.Errors = append(out.Errors, problems...)
	out.Skipped = len(problems)

	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("import")
		}

		saved, err := l.saveKeepingID(ctx, rec.entry)
		if err != nil {
			e := errors.As(err)
			out.Errors = append(out.Errors, ImportError{
				Line:    rec.line,
				ID:      rec.entry.ID.String(),
				Code:    string(e.Code),
				Message: e.Message,
			})
			out.Skipped++
			if input.Mode == ImportModeError {
				// Entries saved so far stay saved; stop at the first failure.
				return out, nil
			}
			continue
		}
		out.Imported++
		out.Source = saved.Source
	}

	return out, nil
}

// parseExportFile reads a JSONL export. The header line and blank lines
// are skipped; every other line must be an entry with a date and a valid
// duration.
func parseExportFile(r io.Reader) ([]importRecord, []ImportError) {
	var records []importRecord
	var problems []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var header ExportHeader
		if err := json.Unmarshal(line, &header); err != nil {
			problems = append(problems, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if header.MDCExport {
			continue
		}

		var e entry.Entry
		if err := json.Unmarshal(line, &e); err != nil {
			problems = append(problems, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid entry: %v", err),
			})
			continue
		}

		if e.Date == "" {
			problems = append(problems, ImportError{
				Line:    lineNum,
				ID:      e.ID.String(),
				Code:    "INVALID_RECORD",
				Message: "missing fecha field",
			})
			continue
		}
		if entry.CheckDuration(e.Duration) == entry.DurationInvalid {
			problems = append(problems, ImportError{
				Line:    lineNum,
				ID:      e.ID.String(),
				Code:    string(errors.ErrInvalidDuration),
				Message: fmt.Sprintf("invalid duracion %q", e.Duration),
			})
			continue
		}
		e.Duration = entry.ToHHMMSS(e.Duration)

		records = append(records, importRecord{line: lineNum, entry: e})
	}

	if err := scanner.Err(); err != nil {
		problems = append(problems, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, problems
}

// splitCollisions separates records whose id is already stored, or
// repeated earlier in the file.
func splitCollisions(records []importRecord, stored []entry.Entry) ([]importRecord, []ImportError) {
	seen := make([]entry.ID, 0, len(stored)+len(records))
	for _, e := range stored {
		seen = append(seen, e.ID)
	}

	pending := make([]importRecord, 0, len(records))
	var collisions []ImportError
	for _, rec := range records {
		id := rec.entry.ID
		if id.String() == "" {
			pending = append(pending, rec)
			continue
		}
		if containsID(seen, id) {
			collisions = append(collisions, ImportError{
				Line:    rec.line,
				ID:      id.String(),
				Code:    "ID_COLLISION",
				Message: fmt.Sprintf("entry with id %q already exists", id.String()),
			})
			continue
		}
		seen = append(seen, id)
		pending = append(pending, rec)
	}
	return pending, collisions
}

func containsID(ids []entry.ID, id entry.ID) bool {
	for _, other := range ids {
		if other.Equal(id) {
			return true
		}
	}
	return false
}
