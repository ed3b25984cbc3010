package cmd

import "github.com/ardnew/leaf/lang"

// Command errors use the template engine's structured error type, so a
// template error they wrap keeps its class and position when logged.
var (
	ErrYAMLMarshal  = lang.NewError("marshal YAML")
	ErrWriteConfig  = lang.NewError("write configuration file")
	ErrFileExists   = lang.NewError("file exists (use --force to overwrite)")
	ErrReadTemplate = lang.NewError("read template")
	ErrLoadData     = lang.NewError("load data")
	ErrLoadFuncs    = lang.NewError("load functions")
	ErrWriteOutput  = lang.NewError("write output")
	ErrNoTemplate   = lang.NewError("no template given (name or --eval)")
	ErrUnknownDump  = lang.NewError("unknown dump format")
)
