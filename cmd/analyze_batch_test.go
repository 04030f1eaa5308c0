package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeBatch_AttachAvoidsOverwrite(t *testing.T) {
	home := isolateHome(t)

	// Two CSV files with the same basename in different directories
	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	for _, d := range []string{d1, d2} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	writeFixture(t, d1, "metrics.csv", "col1,col2\nA,1\nB,\nC,3\n")
	writeFixture(t, d2, "metrics.csv", "col1,col2\nA,1\nB,2\n")

	runCmd(t, "init", "batchp", "-d", "batch project")
	runCmd(t, "analyze-batch", filepath.Join(home, "d*", "metrics.csv"), "-p", "batchp", "--rows", "0", "--workers", "2", "--quiet")

	projDir, err := resolveProjectDirByName("batchp")
	if err != nil {
		t.Fatalf("resolve project: %v", err)
	}
	reports := filepath.Join(projDir, "reports")
	b1 := filepath.Join(reports, "metrics.quality.md")
	b2 := filepath.Join(reports, "metrics__2.quality.md")
	body1, err := os.ReadFile(b1)
	if err != nil {
		t.Fatalf("missing first report: %v", err)
	}
	body2, err := os.ReadFile(b2)
	if err != nil {
		t.Fatalf("missing second report: %v", err)
	}

	// sorted input order: d1 first, then d2
	if !strings.Contains(string(body1), "Rows: 3") {
		t.Fatalf("first report should describe d1/metrics.csv:\n%s", body1)
	}
	if !strings.Contains(string(body2), "Rows: 2") {
		t.Fatalf("second report should describe d2/metrics.csv:\n%s", body2)
	}
	// --rows 0 suppresses the preview section
	if strings.Contains(string(body1), "[HEAD AND SAMPLE ROWS]") {
		t.Fatalf("expected no sample rows in %s", b1)
	}
}

func TestAnalyzeBatch_FailsOnBadFile(t *testing.T) {
	home := isolateHome(t)
	writeFixture(t, home, "ok.csv", "a\n1\n")
	writeFixture(t, home, "bad.docx", "x")
	if err := execCmd("analyze-batch", filepath.Join(home, "*"), "--quiet"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if err := execCmd("analyze-batch", filepath.Join(home, "none-*.csv")); err == nil {
		t.Fatalf("expected no-match error")
	}
}
