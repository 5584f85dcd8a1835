package unit

import "golang.org/x/xerrors"

// ConfigError reports an invalid flag combination, unknown target, or
// unresolvable required-features selection (spec.md §7): surfaced
// immediately, no units run.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Msg: xerrors.Errorf(format, args...).Error()}
}

// GraphError reports a duplicate links key or a dependency cycle detected
// during unit construction (spec.md §7): surfaced immediately.
type GraphError struct {
	Msg string
}

func (e *GraphError) Error() string { return e.Msg }

func graphErrorf(format string, args ...interface{}) error {
	return &GraphError{Msg: xerrors.Errorf(format, args...).Error()}
}
