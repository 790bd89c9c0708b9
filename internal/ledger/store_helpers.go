package ledger

import (
	"database/sql"
	"time"
)

const runColumns = "id, final_name, base_prompt, strategy, structure, unit_count, total_seconds, status, error_message, created_at, updated_at"

const unitColumns = "id, run_id, ordinal, label, prompt, seconds, state, rel_path, resumed, elapsed_ms, created_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           int64
		finalName    string
		basePrompt   string
		strategy     string
		structure    sql.NullString
		unitCount    int
		totalSeconds int
		statusStr    string
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&finalName,
		&basePrompt,
		&strategy,
		&structure,
		&unitCount,
		&totalSeconds,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	return &Run{
		ID:           id,
		FinalName:    finalName,
		BasePrompt:   basePrompt,
		Strategy:     strategy,
		Structure:    structure.String,
		UnitCount:    unitCount,
		TotalSeconds: totalSeconds,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
		CreatedAt:    parseTimeString(createdRaw),
		UpdatedAt:    parseTimeString(updatedRaw),
	}, nil
}

func scanUnit(scanner interface{ Scan(dest ...any) error }) (*Unit, error) {
	var (
		id         int64
		runID      int64
		ordinal    int
		label      string
		prompt     string
		seconds    int
		state      string
		relPath    sql.NullString
		resumed    sql.NullInt64
		elapsedMS  int64
		createdRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&runID,
		&ordinal,
		&label,
		&prompt,
		&seconds,
		&state,
		&relPath,
		&resumed,
		&elapsedMS,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	return &Unit{
		ID:        id,
		RunID:     runID,
		Ordinal:   ordinal,
		Label:     label,
		Prompt:    prompt,
		Seconds:   seconds,
		State:     state,
		RelPath:   relPath.String,
		Resumed:   resumed.Int64 != 0,
		Elapsed:   time.Duration(elapsedMS) * time.Millisecond,
		CreatedAt: parseTimeString(createdRaw),
	}, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(raw sql.NullString) time.Time {
	if !raw.Valid {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw.String); err == nil {
		return parsed
	}
	return time.Time{}
}
