package outcome

import "fmt"

// Status classifies how a vendor fetch concluded.
// ⭐ SSOT: fetch 결과 분류는 이 패키지에서만
type Status int

const (
	// Success means a usable payload was returned.
	Success Status = iota
	// Empty means the vendor answered but had no usable data. Not an error;
	// the symbol simply yields nothing.
	Empty
	// Throttled means the vendor rejected the call for quota reasons.
	// Never retried; the batch driver stops early instead of burning quota.
	Throttled
	// Fatal means transport failed after exhausting retries. Scoped to the
	// single call; the caller decides whether to skip the symbol or stop.
	Fatal
)

// String returns the status name for logs and exports
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Empty:
		return "empty"
	case Throttled:
		return "throttled"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the tagged outcome of one vendor call.
// Reason keeps the vendor's own wording (throttle note, malformed body)
// observable without turning degraded data into errors.
type Result struct {
	Status Status
	Reason string
	Err    error
}

// Successful returns a success result
func Successful() Result {
	return Result{Status: Success}
}

// EmptyWith returns an empty result with the observed reason
func EmptyWith(reason string) Result {
	return Result{Status: Empty, Reason: reason}
}

// ThrottledWith returns a throttled result carrying the vendor note
func ThrottledWith(note string) Result {
	return Result{Status: Throttled, Reason: note}
}

// FatalWith returns a fatal result wrapping the transport error
func FatalWith(err error) Result {
	return Result{Status: Fatal, Err: err}
}

// OK reports whether a usable payload was returned
func (r Result) OK() bool {
	return r.Status == Success
}

// IsThrottled reports whether the vendor throttled the call
func (r Result) IsThrottled() bool {
	return r.Status == Throttled
}

// IsFatal reports whether transport failed after retries
func (r Result) IsFatal() bool {
	return r.Status == Fatal
}

// Halts reports whether the caller should stop instead of treating the
// call as merely empty
func (r Result) Halts() bool {
	return r.Status == Throttled || r.Status == Fatal
}

// String renders the result for logs
func (r Result) String() string {
	if r.Reason != "" {
		return fmt.Sprintf("%s (%s)", r.Status, r.Reason)
	}
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Status, r.Err)
	}
	return r.Status.String()
}
