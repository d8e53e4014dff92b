package cli

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
	pkgio "github.com/matzehuels/plexsim/pkg/io"
	"github.com/matzehuels/plexsim/pkg/plugin/builtin"
)

func TestGenerateToStdout(t *testing.T) {
	out, _ := captureOutput(t)

	if err := Execute(context.Background(), []string{"generate", "#5;infected_value_1", "--model", "growth"}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v\n%s", err, out.String())
	}
	if len(records) != 6 || records[0][0] != "infected" {
		t.Fatalf("records = %v", records)
	}
	for _, r := range records[1:] {
		if r[0] != "1" {
			t.Errorf("row = %v, want infected=1", r)
		}
	}
}

func TestGenerateWithAttrsToFile(t *testing.T) {
	captureOutput(t)
	path := filepath.Join(t.TempDir(), "nodes.csv")

	err := Execute(context.Background(), []string{"generate", "*20;rand_3",
		"--attr", "age=int[0,99]", "--attr", "coop = bool", "-o", path})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	scope := attrs.MustParseScope(attrs.Decl{Name: "age", Range: "int[0,99]"}, attrs.Decl{Name: "coop", Range: "bool"})
	table, err := pkgio.ImportCSV(path, scope)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if len(table.Rows) != 20 || table.HasCoords {
		t.Errorf("rows = %d, coords = %v", len(table.Rows), table.HasCoords)
	}
}

func TestGenerateAttrSyntax(t *testing.T) {
	captureOutput(t)
	err := Execute(context.Background(), []string{"generate", "3", "--attr", "age"})
	if !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestValidate(t *testing.T) {
	out, _ := captureOutput(t)

	if err := Execute(context.Background(), []string{"validate", "double[ 0 , 1 ]", "0.5", "1"}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out.String(), "double[0,1]") {
		t.Errorf("canonical domain missing from output:\n%s", out.String())
	}
}

func TestValidateRand(t *testing.T) {
	draw := func() []string {
		out, _ := captureOutput(t)
		if err := Execute(context.Background(), []string{"validate", "int{2,4,8}", "--rand", "6", "--seed", "9"}); err != nil {
			t.Fatalf("validate: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		return lines[1:]
	}

	first, second := draw(), draw()
	if len(first) != 6 {
		t.Fatalf("drew %d values, want 6", len(first))
	}
	for i, v := range first {
		if v != "2" && v != "4" && v != "8" {
			t.Errorf("value %q outside the set", v)
		}
		if second[i] != v {
			t.Errorf("same seed drew %q then %q", v, second[i])
		}
	}
}

func TestPlugins(t *testing.T) {
	out, _ := captureOutput(t)
	if err := Execute(context.Background(), []string{"plugins"}); err != nil {
		t.Fatalf("plugins: %v", err)
	}
	for _, e := range append(builtin.Default().List("model"), builtin.Default().List("graph")...) {
		if !strings.Contains(out.String(), e.ID()) {
			t.Errorf("table misses %s", e.ID())
		}
	}
}

func TestPluginsYAML(t *testing.T) {
	tests := []struct {
		args []string
		want []string
		not  []string
	}{
		{[]string{"plugins", "--yaml", "--type", "graph"}, []string{"id: cycle", "id: squaregrid"}, []string{"id: growth"}},
		{[]string{"plugins", "growth"}, []string{"id: growth", "nodeAttributes:"}, nil},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, _ := captureOutput(t)
			if err := Execute(context.Background(), tt.args); err != nil {
				t.Fatalf("plugins: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output misses %q:\n%s", w, out.String())
				}
			}
			for _, n := range tt.not {
				if strings.Contains(out.String(), n) {
					t.Errorf("output should not contain %q", n)
				}
			}
		})
	}
}

func TestPluginsErrors(t *testing.T) {
	captureOutput(t)
	if err := Execute(context.Background(), []string{"plugins", "nosuch"}); !perrors.Is(err, perrors.ErrCodePluginNotFound) {
		t.Errorf("error = %v, want PLUGIN_NOT_FOUND", err)
	}
	if err := Execute(context.Background(), []string{"plugins", "--type", "widget"}); !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestCacheCommands(t *testing.T) {
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	dir := filepath.Join(cacheHome, appName)

	out, _ := captureOutput(t)
	if err := Execute(context.Background(), []string{"cache", "path"}); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != dir {
		t.Errorf("cache path = %q, want %q", got, dir)
	}

	out, _ = captureOutput(t)
	if err := Execute(context.Background(), []string{"cache", "clear"}); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out.String(), "empty") {
		t.Errorf("clearing a missing cache: %q", out.String())
	}

	if err := os.MkdirAll(filepath.Join(dir, "ab"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ab", "abcdef.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _ = captureOutput(t)
	if err := Execute(context.Background(), []string{"cache", "clear"}); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out.String(), "Cleared 1 cached entries") {
		t.Errorf("cache clear output = %q", out.String())
	}
}

func TestCompletion(t *testing.T) {
	out, _ := captureOutput(t)
	if err := Execute(context.Background(), []string{"completion", "bash"}); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out.String(), appName) {
		t.Error("bash completion does not mention the program")
	}
}

func TestValidateNext(t *testing.T) {
	out, _ := captureOutput(t)

	if err := Execute(context.Background(), []string{"validate", "string{low,mid,high}", "high", "--next"}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out.String(), "prev mid · next low") {
		t.Errorf("neighbours missing from output:\n%s", out.String())
	}
}
