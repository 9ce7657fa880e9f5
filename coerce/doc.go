// Package coerce converts raw CSV field strings into typed values.
//
// Every function in this package is total: a value that cannot be parsed
// becomes a null, never an error or a panic. Coercion failure is data
// loss, not a pipeline failure, which lets the bulk loaders process rows
// without per-row error handling.
//
// Numbers follow the European convention of the source exports: "." is a
// thousands separator and "," is the decimal separator.
package coerce
