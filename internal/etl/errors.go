package etl

import "errors"

// Error kinds for the pipeline. Failures are wrapped with fmt.Errorf and %w
// so callers can classify them with errors.Is while keeping the original
// cause in the chain.
var (
	// ErrIO covers file and database access failures.
	ErrIO = errors.New("io error")
	// ErrNetwork covers HTTP failures: non-2xx responses and timeouts.
	ErrNetwork = errors.New("network error")
	// ErrParse covers malformed CSV or JSON input.
	ErrParse = errors.New("parse error")
	// ErrConfig covers unknown strategy or option values.
	ErrConfig = errors.New("config error")
	// ErrConversion covers values not representable in a target type.
	ErrConversion = errors.New("conversion error")
	// ErrState covers operations that require prior setup, e.g. loading to a
	// database before Connect.
	ErrState = errors.New("state error")
)
