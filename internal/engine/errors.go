package engine

import "fmt"

// PipelineError wraps a failure from the underlying decode/render pipeline.
type PipelineError struct {
	Op  string // operation that failed, e.g. "load", "seek"
	Err error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// InvalidStateError reports an operation attempted in a state that cannot
// satisfy it, e.g. Play with no source loaded.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return "invalid state: " + e.Reason
}

// UnsupportedFormatError reports a source file the engine cannot decode.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported format: " + e.Ext
}
