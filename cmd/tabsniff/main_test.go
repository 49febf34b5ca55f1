package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/tabsniff/internal/core"
)

func TestRun_Stdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	in := strings.NewReader("a;b\n1;2\n3;4\n")

	if code := run(nil, in, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr = %s", code, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "separator: "+core.LabelSemicolon) {
		t.Errorf("output missing separator label:\n%s", out)
	}
	if !strings.Contains(out, "2 columns x 2 rows") {
		t.Errorf("output missing shape:\n%s", out)
	}
}

func TestRun_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.tsv")
	if err := os.WriteFile(path, []byte("x\ty\n1\t2\n3\t4\n5\t6\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-json", "-rows", "1", path}, nil, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr = %s", code, stderr.String())
	}

	var det core.Detection
	if err := json.Unmarshal(stdout.Bytes(), &det); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if det.Label != core.LabelTab {
		t.Errorf("Label = %q, want %q", det.Label, core.LabelTab)
	}
	if det.Table.NumRows() != 1 {
		t.Errorf("rows = %d, want 1 after -rows 1", det.Table.NumRows())
	}
}

func TestRun_Truncates(t *testing.T) {
	var stdout, stderr bytes.Buffer
	in := strings.NewReader("a,b\n1,2\n3,4\n5,6\n")

	if code := run([]string{"-rows", "1", "-attempts"}, in, &stdout, &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr = %s", code, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "... 2 more rows") {
		t.Errorf("output missing truncation note:\n%s", out)
	}
	if !strings.Contains(out, "candidate") || !strings.Contains(out, "whitespace") {
		t.Errorf("output missing attempts table:\n%s", out)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		in   string
		want int
	}{
		{"comments only", nil, "# nothing\n\n", 1},
		{"missing file", []string{filepath.Join(os.TempDir(), "tabsniff-does-not-exist.csv")}, "", 1},
		{"bad flag", []string{"-nope"}, "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, strings.NewReader(tt.in), &stdout, &stderr); code != tt.want {
				t.Errorf("run() = %d, want %d", code, tt.want)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, want empty", stdout.String())
			}
		})
	}
}

func TestRun_CatalogMessage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-log-level", "error"}, strings.NewReader("# only a comment\n"), &stdout, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "(Code: FILE") {
		t.Errorf("stderr = %q, want a catalog message with a FILE code", stderr.String())
	}
}
