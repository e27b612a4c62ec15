package handler

import "time"

// ResultStatus indicates the outcome of executing a command line.
type ResultStatus uint8

const (
	// StatusOK indicates the handler ran and returned no error.
	StatusOK ResultStatus = iota
	// StatusEmptyInput indicates the line held no command.
	StatusEmptyInput
	// StatusNotFound indicates no variant was registered under the name.
	StatusNotFound
	// StatusError indicates the handler ran and failed.
	StatusError
	// StatusCancelled indicates a pre-execute hook cancelled the call.
	StatusCancelled
)

// String returns a string representation of the status.
func (s ResultStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmptyInput:
		return "empty-input"
	case StatusNotFound:
		return "not-found"
	case StatusError:
		return "error"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result represents the outcome of executing a command line.
type Result struct {
	// Status indicates the result status.
	Status ResultStatus

	// Command is the parsed command name (empty for blank input).
	Command string

	// Args holds the parsed arguments, including ones discarded because the
	// command only has a no-argument variant.
	Args []string

	// Kind is the variant that was invoked. Only meaningful when Invoked.
	Kind Kind

	// Invoked reports whether a handler actually ran.
	Invoked bool

	// Error contains the failure for non-OK statuses.
	Error error

	// Warning contains a non-fatal condition, such as discarded arguments.
	Warning error

	// Duration is the time spent in the handler and its deferred work.
	Duration time.Duration

	// Depth is the nesting level of the call: 0 for a line executed by the
	// host, 1 or more for a line run from inside another handler.
	Depth int
}

// IsOK returns true if the result indicates success.
func (r Result) IsOK() bool {
	return r.Status == StatusOK
}

// IsError returns true if the result carries an error.
func (r Result) IsError() bool {
	return r.Error != nil
}

// Err returns the result's error, or nil on success.
func (r Result) Err() error {
	return r.Error
}
