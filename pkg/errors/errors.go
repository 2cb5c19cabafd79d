package errors

import stderrors "errors"

// Error kinds surfaced by tsfix. Callers match them with errors.Is.
var (
	// ErrInvalidArgument is returned for a missing or unusable command-line argument.
	ErrInvalidArgument = stderrors.New("invalid argument")
	// ErrDirectoryAccess is returned when a root path does not exist or is not a directory.
	ErrDirectoryAccess = stderrors.New("directory access error")
	// ErrFileAccess wraps a read or write failure on a single file.
	ErrFileAccess = stderrors.New("file access error")
	// ErrParseFailure marks an import line that does not fit the supported grammar.
	ErrParseFailure = stderrors.New("parse failure")
)

// Error message constants for the tsfix application
const (
	// File processing errors
	ErrMsgFailedToReadFile   = "failed to read file"
	ErrMsgFailedToWriteFile  = "failed to write file"
	ErrMsgFailedToParseLine  = "failed to parse import statement"
	ErrMsgFailedToApplyEdits = "failed to apply edits"
	ErrMsgFailedToReadReport = "failed to read diagnostic report"

	// Directory processing errors
	ErrMsgFailedToCheckPath    = "failed to check path"
	ErrMsgNotADirectory        = "not a directory"
	ErrMsgFailedToReadDir      = "failed to read directory"
	ErrMsgFilesFailedToProcess = "%d files failed to process"

	// Watch errors
	ErrMsgFailedToCreateWatcher = "failed to create file watcher"
	ErrMsgFailedToWatchDir      = "failed to watch directory"

	// Info/warning messages
	InfoMsgDryRun             = "Dry run: no files will be modified."
	InfoMsgNoSourceFilesFound = "No source files found in directory: %s"
	InfoMsgRewroteSpecifier   = "rewrote specifier %s -> %s"
	InfoMsgUpdatedFile        = "updated"
	InfoMsgWouldUpdateFile    = "would update"
	InfoMsgSplitStatement     = "split import of %q into value and type-only imports"
	InfoMsgNoDiagnostics      = "No matching diagnostics found."
	InfoMsgSummary            = "Processed %d files, %d changed"
	InfoMsgWatching           = "watching for changes"
	WarnMsgSkippedDirectory   = "skipping directory"
	WarnMsgSkippedStatement   = "leaving statement unmodified"
	WarnMsgNoStatementAtLine  = "no import statement found at diagnostic line"
	WarnMsgNameNotBound       = "diagnostic names an identifier the statement does not bind: %q"
)
