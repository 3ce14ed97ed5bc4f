package cygnss

import "fmt"

// ConfigurationError reports an invalid or incomplete configuration: a
// missing required variable in a source file, an unknown grid, or a grid
// whose projection units the selected method cannot work with.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// IngestionError reports a source file that could not be read. It is fatal
// for that file only; the caller decides whether to skip it or abort the run.
type IngestionError struct {
	Path string
	Err  error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingesting %s: %v", e.Path, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// DataIntegrityError reports a per-row derivation that could not be
// computed. Rows carrying one are dropped; the pipeline continues.
type DataIntegrityError struct {
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return "data integrity error: " + e.Reason
}
