//go:build basic || database

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedBinaryPath holds the path to a shared qpsplot binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getQpsplotBinary returns the path to the qpsplot binary, building it once if needed.
func getQpsplotBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "qpsplot-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "qpsplot")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build qpsplot: %v", err))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// fixtureLog returns the absolute path of the bundled access log.
func fixtureLog(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", "access.log"))
	if err != nil {
		t.Fatalf("failed to resolve fixture: %v", err)
	}
	return path
}

// runQpsplot runs the binary from a scratch directory and returns stdout.
// env entries are appended to the current environment.
func runQpsplot(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getQpsplotBinary(), args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logf("Command failed: %s\nStderr: %s", cmd.String(), stderr.String())
		return stdout.String(), err
	}
	return stdout.String(), nil
}
