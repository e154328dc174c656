package engine

// WriteHook runs before a write commits. It may veto the write by
// returning proceed=false, or substitute the stored value by returning
// a different replacement. A vetoed write is a silent no-op: no error,
// no event, no audit record.
type WriteHook func(key string, value any) (replacement any, proceed bool)

// DeleteHook runs before a delete commits and may veto it.
type DeleteHook func(key string) (proceed bool)

// ClearHook runs before a clear commits and may veto it.
type ClearHook func() (proceed bool)

// Hooks bundles the lifecycle interception points. Before-hooks run
// prior to the backend commit and may veto or substitute; after-hooks
// run post-commit and are purely observational. Nil hooks are skipped.
//
// Hooks never run for state applied from inbound peer messages.
type Hooks struct {
	BeforeWrite  WriteHook
	BeforeDelete DeleteHook
	BeforeClear  ClearHook

	AfterWrite  func(key string, value any)
	AfterDelete func(key string)
	AfterClear  func()
}

// Validator checks a value before it is written. Returning an error
// rejects the value under strict safe mode and logs a warning under
// advisory safe mode.
type Validator func(key string, value any) error

// SafeModeLevel selects how validation failures are handled.
type SafeModeLevel int

const (
	// SafeModeOff disables validation entirely.
	SafeModeOff SafeModeLevel = iota

	// SafeModeAdvisory runs the validator and logs failures, but lets
	// the write proceed.
	SafeModeAdvisory

	// SafeModeStrict rejects failing writes with a validation error.
	SafeModeStrict
)

// String returns the config-file spelling of the level.
func (l SafeModeLevel) String() string {
	switch l {
	case SafeModeAdvisory:
		return "advisory"
	case SafeModeStrict:
		return "strict"
	default:
		return "off"
	}
}

// ParseSafeModeLevel maps a config string to a level. Unknown strings
// fall back to off.
func ParseSafeModeLevel(s string) SafeModeLevel {
	switch s {
	case "advisory":
		return SafeModeAdvisory
	case "strict":
		return SafeModeStrict
	default:
		return SafeModeOff
	}
}
