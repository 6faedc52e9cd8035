package cmd

// Exit codes for the attest CLI
const (
	// ExitSuccess indicates the command completed and all tests passed
	ExitSuccess = 0

	// ExitTestFailure indicates the rendered report contains failures
	ExitTestFailure = 1

	// ExitReportError indicates a malformed or unreadable report file
	ExitReportError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
