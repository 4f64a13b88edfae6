package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	Enabled = false
	logPath = "debug.log"
)

// SetPath directs the log to a file inside dir.
func SetPath(dir string) {
	logPath = filepath.Join(dir, "debug.log")
}

// Log writes to the debug log only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if !Enabled {
		return
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, time.Now().Format("15:04:05.000 ")+format+"\n", args...)
}
