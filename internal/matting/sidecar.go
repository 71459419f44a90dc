package matting

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	startupWait    = 15 * time.Second
	defaultSidecar = "python3 serve.py"
)

var (
	sidecarCmd *exec.Cmd
	cmdMutex   sync.Mutex
)

// startSidecar launches the Python model process in the background. The
// command comes from MATTE_SIDECAR_CMD (default: the bundled serve script);
// model weights are downloaded by the sidecar itself on first run.
func startSidecar(addr string) error {
	cmdMutex.Lock()
	defer cmdMutex.Unlock()

	if sidecarCmd != nil && sidecarCmd.Process != nil && sidecarCmd.ProcessState == nil {
		return nil
	}

	parts := sidecarArgs(os.Getenv("MATTE_SIDECAR_CMD"))

	log.Printf("Starting matting sidecar: %s --listen %s", strings.Join(parts, " "), addr)
	cmd := exec.Command(parts[0], append(parts[1:], "--listen", addr)...)
	cmd.Dir = os.Getenv("MATTE_SIDECAR_DIR")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start matting sidecar: %w", err)
	}
	sidecarCmd = cmd

	// Model load dominates startup; give it a fixed grace period.
	time.Sleep(startupWait)
	log.Println("Matting sidecar started")
	return nil
}

// sidecarArgs splits a configured sidecar command line, falling back to the
// bundled serve script when the value is empty or whitespace only.
func sidecarArgs(command string) []string {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		parts = strings.Fields(defaultSidecar)
	}
	return parts
}
