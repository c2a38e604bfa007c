package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtensionMechanism(t *testing.T) {
	tempDir := t.TempDir()

	helloCmdSource := fmt.Sprintf(`
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("%s=%%s\n", os.Getenv("%s"))
	fmt.Printf("args=%%v\n", os.Args[1:])
}
`, EnvLedgerFile, EnvLedgerFile, EnvStoreDriver, EnvStoreDriver, EnvVerbose, EnvVerbose)

	helloCmdPath := filepath.Join(tempDir, "inv-hello")
	srcFile := helloCmdPath + ".go"
	if err := os.WriteFile(srcFile, []byte(helloCmdSource), 0644); err != nil {
		t.Fatalf("Failed to write inv-hello source: %v", err)
	}
	build := exec.Command("go", "build", "-o", helloCmdPath, srcFile)
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile inv-hello: %v", err)
	}

	invBinaryPath := filepath.Join(tempDir, "inv")
	build = exec.Command("go", "build", "-o", invBinaryPath, "../inv")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		t.Fatalf("Failed to compile inv binary: %v", err)
	}

	expectedLedgerFile := filepath.Join(tempDir, "random_ledger.jsonl")
	args := []string{
		"-ledger-file", expectedLedgerFile,
		"-store", "sqlite",
		"-v",
		"hello", "world",
	}
	invCmd := exec.Command(invBinaryPath, args...)
	invCmd.Dir = tempDir
	invCmd.Env = []string{"PATH=" + tempDir + string(os.PathListSeparator) + os.Getenv("PATH")}

	var stdout, stderr bytes.Buffer
	invCmd.Stdout = &stdout
	invCmd.Stderr = &stderr
	if err := invCmd.Run(); err != nil {
		t.Fatalf("inv command failed: %v\nStdout: %s\nStderr: %s", err, stdout.String(), stderr.String())
	}

	output := stdout.String()
	for _, want := range []string{
		EnvLedgerFile + "=" + expectedLedgerFile,
		EnvStoreDriver + "=sqlite",
		EnvVerbose + "=true",
		"args=[world]",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, but got:\n%s", want, output)
		}
	}
}
