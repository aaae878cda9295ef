package sim

import "fmt"

// ConfigurationError reports an invalid simulation setup. It is returned
// before any event is scheduled; a run that begins executing events can no
// longer fail with it.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// LogicError reports scheduler misuse, such as scheduling an event into the
// past. It indicates a bug in the calling engine, not a recoverable
// simulation condition.
type LogicError struct {
	Op     string
	Reason string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("logic error in %s: %s", e.Op, e.Reason)
}
