package docs

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Fence kinds executed by the documentation tests.
const (
	bashSetup    = "bash setup"    // starts a new scenario in an empty folder
	bashRun      = "bash run"      // its output is checked by the next console check
	bashCheck    = "bash check"    // must exit 0
	consoleCheck = "console check" // expected output of the last bash run
)

// TestTopics checks that readme.md lists every embedded topic, and only those.
func TestTopics(t *testing.T) {
	readme, err := GetTopic("readme")
	if err != nil {
		t.Fatalf("GetTopic(readme) unexpected error: %v", err)
	}
	listed := make(map[string]bool)
	for _, line := range strings.Split(readme, "\n") {
		if name, _, ok := strings.Cut(strings.TrimPrefix(line, "* "), ":"); ok && strings.HasPrefix(line, "* ") {
			listed[strings.TrimSpace(name)] = true
		}
	}

	topics, err := GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics() unexpected error: %v", err)
	}
	for _, topic := range topics {
		if !listed[topic] {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
		delete(listed, topic)
	}
	for topic := range listed {
		t.Errorf("readme.md lists %q but there is no %s.md", topic, topic)
	}
}

// TestCodeBlocks runs every scenario of the topics and of the README with the
// inv binary built from this module.
func TestCodeBlocks(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs inv")
	}
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	files = append(files, "../README.md")

	for _, file := range files {
		for _, sc := range parseScenarios(t, file) {
			t.Run(sc.name, sc.run)
		}
	}
}

// block is a fenced code block of one of the executed kinds.
type block struct {
	kind    string
	content string
	line    int
}

// scenario is a setup block and the blocks that follow it until the next setup.
type scenario struct {
	name   string
	blocks []block
}

func parseScenarios(t *testing.T, file string) []*scenario {
	t.Helper()
	source, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}

	var scenarios []*scenario
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		b := block{
			kind: string(fcb.Info.Segment.Value(source)),
			line: 1 + strings.Count(string(source[:fcb.Info.Segment.Start]), "\n"),
		}
		switch b.kind {
		case bashSetup:
			scenarios = append(scenarios, &scenario{name: fmt.Sprintf("%s:%d", filepath.Base(file), b.line)})
		case bashRun, bashCheck, consoleCheck:
			if len(scenarios) == 0 {
				t.Fatalf("%s:%d: %s block before any %s block", file, b.line, b.kind, bashSetup)
			}
		default:
			return ast.WalkContinue, nil
		}
		var content strings.Builder
		for i := 0; i < fcb.Lines().Len(); i++ {
			seg := fcb.Lines().At(i)
			content.Write(seg.Value(source))
		}
		b.content = content.String()
		sc := scenarios[len(scenarios)-1]
		sc.blocks = append(sc.blocks, b)
		return ast.WalkContinue, nil
	})
	return scenarios
}

// run executes the scenario blocks in a fresh folder. The ledger and the
// sqlite store of the scenario live in that folder, whatever the caller's
// environment says.
func (sc *scenario) run(t *testing.T) {
	inv := buildInv(t)
	dir := t.TempDir()
	env := append(os.Environ(),
		"PATH="+filepath.Dir(inv)+string(os.PathListSeparator)+os.Getenv("PATH"),
		"INV_LEDGER_FILE="+filepath.Join(dir, "ledger.jsonl"),
		"INV_STORE_DRIVER=",
		"INV_STORE_DSN="+filepath.Join(dir, "inv.db"),
		"INV_CACHE_URL=",
		"INV_VERBOSE=",
	)

	var last string
	for _, b := range sc.blocks {
		if b.kind == consoleCheck {
			got := strings.ReplaceAll(strings.TrimSpace(last), "\t", "        ")
			if diff := cmp.Diff(strings.TrimSpace(b.content), got); diff != "" {
				t.Errorf("line %d: output mismatch (-want +got):\n%s", b.line, diff)
			}
			continue
		}
		cmd := exec.Command("bash", "-c", "set -e; "+b.content)
		cmd.Dir = dir
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		if b.kind == bashRun {
			last = string(out)
		}
		switch {
		case err == nil:
		case b.kind == bashCheck:
			t.Errorf("line %d: check failed: %v\n%s", b.line, err, out)
		default:
			t.Fatalf("line %d: %s failed: %v\n%s", b.line, b.kind, err, out)
		}
	}
}

var (
	buildOnce sync.Once
	invPath   string
	buildErr  error
)

// buildInv builds the inv binary once for the whole test run.
func buildInv(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "inv-docs")
		if err != nil {
			buildErr = err
			return
		}
		invPath = filepath.Join(dir, "inv")
		if out, err := exec.Command("go", "build", "-o", invPath, "../inv/").CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("%v\n%s", err, out)
		}
	})
	if buildErr != nil {
		t.Fatalf("failed to build inv: %v", buildErr)
	}
	return invPath
}
