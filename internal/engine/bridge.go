package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const bridgeScriptName = "chembfn_bridge.py"

// BridgeEngine runs generation through a local Python process. The request is
// written to the script's stdin as JSON and the result read from stdout.
type BridgeEngine struct {
	pythonPath string
	scriptPath string
	device     string
	timeout    time.Duration
}

// NewBridgeEngine resolves the interpreter and script. Empty arguments fall
// back to searching PATH and the usual script locations.
func NewBridgeEngine(python, script, device string) (*BridgeEngine, error) {
	pythonPath, err := findPython(python)
	if err != nil {
		return nil, err
	}

	scriptPath, err := findScript(script)
	if err != nil {
		return nil, err
	}

	return &BridgeEngine{
		pythonPath: pythonPath,
		scriptPath: scriptPath,
		device:     device,
		timeout:    30 * time.Minute,
	}, nil
}

func findPython(configured string) (string, error) {
	candidates := []string{"python3", "python"}
	if configured != "" {
		candidates = []string{configured}
	}
	for _, name := range candidates {
		path, err := exec.LookPath(name)
		if err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("python not found in PATH")
}

func findScript(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("bridge script %s: %w", configured, err)
		}
		return filepath.Abs(configured)
	}

	execPath, _ := os.Executable()
	execDir := filepath.Dir(execPath)
	home, _ := os.UserHomeDir()

	locations := []string{
		filepath.Join(execDir, "python", bridgeScriptName),
		filepath.Join("python", bridgeScriptName),
		filepath.Join(home, ".config", "chembfn", "python", bridgeScriptName),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			abs, _ := filepath.Abs(loc)
			return abs, nil
		}
	}

	return "", fmt.Errorf("%s not found", bridgeScriptName)
}

func (b *BridgeEngine) Name() string {
	return "bridge"
}

// bridgeResult is what the script prints on stdout.
type bridgeResult struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error,omitempty"`
	Sequences []string `json:"sequences"`
	Chemfig   []string `json:"chemfig,omitempty"`
	Device    string   `json:"device,omitempty"`
}

func (b *BridgeEngine) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	_, err := b.run(ctx, nil, "--ping")
	return err
}

func (b *BridgeEngine) Generate(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	input, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	res, err := b.run(ctx, input)
	if err != nil {
		return nil, err
	}

	return &Response{
		Sequences: res.Sequences,
		Chemfig:   res.Chemfig,
		Model:     req.Model,
		Device:    res.Device,
	}, nil
}

func (b *BridgeEngine) run(ctx context.Context, input []byte, args ...string) (*bridgeResult, error) {
	argv := append([]string{b.scriptPath}, args...)
	if b.device != "" {
		argv = append(argv, "--device", b.device)
	}
	cmd := exec.CommandContext(ctx, b.pythonPath, argv...)
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The script reports its own failures on stdout
			var result bridgeResult
			if json.Unmarshal(output, &result) == nil && result.Error != "" {
				return nil, fmt.Errorf("%s", result.Error)
			}
			return nil, fmt.Errorf("bridge failed: %s", strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("failed to run bridge: %w", err)
	}

	var result bridgeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse bridge output: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("%s", result.Error)
	}
	if result.Chemfig != nil && len(result.Chemfig) != len(result.Sequences) {
		return nil, fmt.Errorf("bridge returned %d chemfig codes for %d sequences", len(result.Chemfig), len(result.Sequences))
	}

	return &result, nil
}
