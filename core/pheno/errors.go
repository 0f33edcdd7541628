package pheno

import "fmt"

// DecodeError reports a malformed or unreadable temporal stack.
// It is produced by decoders and by Stack validation, and is never recovered.
type DecodeError struct {
	Source string // file path or a short description of the input
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("decode stack: %v", e.Err)
	}
	return fmt.Sprintf("decode stack %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports phase window boundaries or thresholds that make
// classification ambiguous. Classify returns it before touching any pixel.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid phase configuration: %s %s", e.Field, e.Reason)
}
