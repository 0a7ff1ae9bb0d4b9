//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	AppID         string
	AppSecret     string
	PermanentCode string
	OpenUserID    string
	ObjectAPIName string
	FxcrmPath     string
	Verbose       bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	objectAPIName := os.Getenv("FXCRM_TEST_OBJECT")
	if objectAPIName == "" {
		objectAPIName = "AccountObj"
	}

	return &TestConfig{
		AppID:         os.Getenv("FXCRM_APP_ID"),
		AppSecret:     os.Getenv("FXCRM_APP_SECRET"),
		PermanentCode: os.Getenv("FXCRM_PERMANENT_CODE"),
		OpenUserID:    os.Getenv("FXCRM_OPEN_USER_ID"),
		ObjectAPIName: objectAPIName,
		FxcrmPath:     getFxcrmPath(),
		Verbose:       os.Getenv("FXCRM_VERBOSE") == "true",
	}
}

// getFxcrmPath determines the path to the fxcrm binary
func getFxcrmPath() string {
	if path := os.Getenv("FXCRM_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../fxcrm",
		"./fxcrm",
		"../fxcrm",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "fxcrm"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.AppID == "" || config.AppSecret == "" || config.PermanentCode == "" {
		t.Skip("FXCRM_APP_ID, FXCRM_APP_SECRET or FXCRM_PERMANENT_CODE not set, skipping integration test")
	}

	if config.OpenUserID == "" {
		t.Skip("FXCRM_OPEN_USER_ID not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.FxcrmPath); err != nil {
		t.Skipf("fxcrm binary not found at %s, skipping integration test", config.FxcrmPath)
	}
}

// CommandRunner provides utilities for running fxcrm commands
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes an fxcrm command. Credentials reach it through FXCRM_* variables.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	// #nosec G204 -- the binary path comes from the test environment
	cmd := exec.Command(runner.config.FxcrmPath, args...)
	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.FxcrmPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON executes a command with --output json and decodes the result.
func (runner *CommandRunner) RunJSON(target interface{}, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	require.NoError(runner.t, err, "fxcrm %s failed: %s", strings.Join(args, " "), stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), target), "output is not JSON: %s", stdout)
}
