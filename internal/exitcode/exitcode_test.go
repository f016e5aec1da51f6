package exitcode

import (
	"errors"
	"testing"

	reproerrors "github.com/visvikbharti/reprokit/internal/errors"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, Success},
		{"checksum mismatch", reproerrors.New(reproerrors.ErrCodeBundleChecksum, "bundle checksum mismatch"), ChecksumMismatch},
		{"verification failed", errors.New("verification failed"), VerificationFailed},
		{"data error", reproerrors.New(reproerrors.ErrCodeDataEmpty, "dataset has no columns"), DataError},
		{"io error", reproerrors.New(reproerrors.ErrCodeFileNotFound, "bundle file not found"), IOError},
		{"missing file", errors.New("open x: no such file or directory"), IOError},
		{"usage error", errors.New("unknown flag: --frobnicate"), UsageError},
		{"generic error", errors.New("something else went wrong"), GeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.want {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
