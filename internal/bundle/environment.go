package bundle

import (
	"os"
	"runtime"

	"github.com/visvikbharti/reprokit/internal/version"
)

// Environment records where a bundle was produced. It is audit metadata:
// verification reports environment drift as a warning, never a failure,
// because bit-identical floats across platforms are a non-goal.
type Environment struct {
	EngineVersion string `json:"engine_version"`
	GoVersion     string `json:"go_version"`
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Hostname      string `json:"hostname,omitempty"`
	NumCPU        int    `json:"num_cpu"`
}

// CaptureEnvironment records the current process environment
func CaptureEnvironment() Environment {
	hostname, _ := os.Hostname()
	return Environment{
		EngineVersion: version.GetInfo().Version,
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		Hostname:      hostname,
		NumCPU:        runtime.NumCPU(),
	}
}
