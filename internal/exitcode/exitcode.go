package exitcode

import (
	"os"
	"strings"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// DataError indicates a dataset or fingerprint validation failure
	DataError = 3

	// VerificationFailed indicates a reproducibility verification failure
	VerificationFailed = 4

	// ChecksumMismatch indicates a bundle checksum or integrity failure
	ChecksumMismatch = 5

	// IOError indicates a file read/write failure
	IOError = 6
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "checksum") {
		return ChecksumMismatch
	}

	if strings.Contains(errMsg, "verification failed") {
		return VerificationFailed
	}

	if strings.Contains(errMsg, "[data-") {
		return DataError
	}

	if strings.Contains(errMsg, "[io-") ||
		strings.Contains(errMsg, "no such file") ||
		strings.Contains(errMsg, "permission denied") {
		return IOError
	}

	if strings.Contains(errMsg, "unknown flag") ||
		strings.Contains(errMsg, "requires at least") ||
		strings.Contains(errMsg, "accepts") {
		return UsageError
	}

	return GeneralError
}
