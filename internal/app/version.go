package app

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"pocsagtx/internal/fsk"
)

// Version information (set by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// ShowVersion writes version and build capabilities to w
func ShowVersion(w io.Writer) {
	formats := []string{string(fsk.FormatPCM), string(fsk.FormatRaw), string(fsk.FormatText)}
	if fsk.AudioSupported {
		formats = append(formats, string(fsk.FormatAudio))
	}

	fmt.Fprintf(w, "pocsagtx %s (POCSAG paging encoder)\n", Version)
	fmt.Fprintf(w, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", GitCommit)
	fmt.Fprintf(w, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "Baud rates: 512, 1200, 2400\n")
	fmt.Fprintf(w, "Output formats: %s\n", strings.Join(formats, ", "))
}
