package prdoc

import "errors"

// Error taxonomy for one analysis run. Components wrap these sentinels with
// %w so the orchestrator can classify any failure with errors.Is.
var (
	// ErrSourceUnavailable means the diff could not be fetched. Fatal: no
	// partial analysis happens without a diff.
	ErrSourceUnavailable = errors.New("prdoc: diff source unavailable")

	// ErrOracleUnavailable means the classification oracle could not be
	// reached. Transient; the adapter retries with bounded backoff before
	// surfacing it.
	ErrOracleUnavailable = errors.New("prdoc: classification oracle unavailable")

	// ErrOracleMalformed means the oracle's response could not be coerced
	// into the classification schema after all repair attempts.
	ErrOracleMalformed = errors.New("prdoc: classification oracle returned malformed output")

	// ErrPatchUnsafe means the document could not be safely mutated. The
	// run downgrades to report-only rather than risking corruption.
	ErrPatchUnsafe = errors.New("prdoc: document could not be safely patched")

	// ErrSinkUnavailable means a commit or comment side effect failed.
	// Reported per sink; one sink's failure does not cancel the other.
	ErrSinkUnavailable = errors.New("prdoc: sink unavailable")
)
