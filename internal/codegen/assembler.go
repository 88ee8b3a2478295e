package codegen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrNoAssembler is returned when wat2wasm is not on PATH.
var ErrNoAssembler = errors.New("wat2wasm not found in PATH")

// Assembler is the external tool that turns module text into a binary.
var Assembler = "wat2wasm"

// Assemble writes the binary encoding of watText to outputPath.
func Assemble(ctx context.Context, watText string, outputPath string) error {
	tool, err := exec.LookPath(Assembler)
	if err != nil {
		return ErrNoAssembler
	}

	tmpDir, err := os.MkdirTemp("", "pywat-assemble-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	watPath := filepath.Join(tmpDir, "program.wat")
	if err := os.WriteFile(watPath, []byte(watText), 0o644); err != nil {
		return fmt.Errorf("failed to write module text: %w", err)
	}

	cmd := exec.CommandContext(ctx, tool, watPath, "-o", outputPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("assembler failed: %w\n%s", err, output)
	}
	return nil
}
