package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// seedReportDir lays out a small artifact tree for contract checks.
func seedReportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"summary.md":          "# Summary\nall good\n",
		"reviews/security.md": "# Security\n- sql injection in login\n",
		"reviews/style.md":    "# Style\nnaming is fine\n",
		"logs/run.txt":        "started\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return dir
}

func TestCheckContracts(t *testing.T) {
	dir := seedReportDir(t)

	t.Run("all satisfied", func(t *testing.T) {
		result, err := CheckContracts(dir, []string{"summary.md", "reviews/*.md"})
		if err != nil {
			t.Fatalf("CheckContracts() error = %v", err)
		}
		if !result.AllSatisfied() {
			t.Errorf("AllSatisfied() = false, missing = %v", result.Missing)
		}
		reviews := result.Satisfied["reviews/*.md"]
		if len(reviews) != 2 {
			t.Fatalf("reviews/*.md matched %d artifacts, want 2", len(reviews))
		}
		if reviews[0].RelPath != "reviews/security.md" || reviews[1].RelPath != "reviews/style.md" {
			t.Errorf("matched artifacts out of order: %v", reviews)
		}
	})

	t.Run("missing contract", func(t *testing.T) {
		result, err := CheckContracts(dir, []string{"absent/*.txt"})
		if err != nil {
			t.Fatalf("CheckContracts() error = %v", err)
		}
		if result.AllSatisfied() {
			t.Error("AllSatisfied() = true, want false")
		}
		if result.AnySatisfied() {
			t.Error("AnySatisfied() = true, want false")
		}
		if len(result.Missing) != 1 || result.Missing[0] != "absent/*.txt" {
			t.Errorf("Missing = %v, want [absent/*.txt]", result.Missing)
		}
	})

	t.Run("mixed", func(t *testing.T) {
		result, err := CheckContracts(dir, []string{"summary.md", "absent/*.txt"})
		if err != nil {
			t.Fatalf("CheckContracts() error = %v", err)
		}
		if result.AllSatisfied() {
			t.Error("AllSatisfied() = true, want false")
		}
		if !result.AnySatisfied() {
			t.Error("AnySatisfied() = false, want true")
		}
	})

	t.Run("star stays within one level", func(t *testing.T) {
		result, err := CheckContracts(dir, []string{"*.md"})
		if err != nil {
			t.Fatalf("CheckContracts() error = %v", err)
		}
		arts := result.Satisfied["*.md"]
		if len(arts) != 1 || arts[0].RelPath != "summary.md" {
			t.Errorf("*.md matched %v, want only summary.md", arts)
		}
	})

	t.Run("double star crosses levels", func(t *testing.T) {
		result, err := CheckContracts(dir, []string{"**.md"})
		if err != nil {
			t.Fatalf("CheckContracts() error = %v", err)
		}
		if got := len(result.Satisfied["**.md"]); got != 3 {
			t.Errorf("**.md matched %d artifacts, want 3", got)
		}
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := CheckContracts(dir, []string{"["})
		if err == nil {
			t.Fatal("CheckContracts() error = nil, want error for invalid pattern")
		}
	})

	t.Run("absent directory leaves contracts missing", func(t *testing.T) {
		result, err := CheckContracts(filepath.Join(dir, "never-created"), []string{"*.md"})
		if err != nil {
			t.Fatalf("CheckContracts() error = %v", err)
		}
		if len(result.Missing) != 1 {
			t.Errorf("Missing = %v, want one entry", result.Missing)
		}
	})
}

func TestContractResult_Artifacts(t *testing.T) {
	dir := seedReportDir(t)

	// Overlapping patterns must not duplicate artifacts.
	result, err := CheckContracts(dir, []string{"reviews/*.md", "reviews/security.md"})
	if err != nil {
		t.Fatalf("CheckContracts() error = %v", err)
	}
	arts := result.Artifacts()
	if len(arts) != 2 {
		t.Fatalf("Artifacts() returned %d, want 2 (deduplicated)", len(arts))
	}
	if arts[0].RelPath != "reviews/security.md" {
		t.Errorf("Artifacts()[0] = %s, want reviews/security.md", arts[0].RelPath)
	}
}

func TestArtifact_Read(t *testing.T) {
	dir := seedReportDir(t)

	result, err := CheckContracts(dir, []string{"summary.md"})
	if err != nil {
		t.Fatalf("CheckContracts() error = %v", err)
	}
	arts := result.Satisfied["summary.md"]
	if len(arts) != 1 {
		t.Fatalf("expected one artifact, got %d", len(arts))
	}

	content, err := arts[0].Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !strings.Contains(content, "all good") {
		t.Errorf("Read() = %q, want summary content", content)
	}
}

func TestCombined(t *testing.T) {
	dir := seedReportDir(t)

	result, err := CheckContracts(dir, []string{"reviews/*.md"})
	if err != nil {
		t.Fatalf("CheckContracts() error = %v", err)
	}

	combined, err := Combined(result.Artifacts())
	if err != nil {
		t.Fatalf("Combined() error = %v", err)
	}

	secIdx := strings.Index(combined, "=== reviews/security.md ===")
	styleIdx := strings.Index(combined, "=== reviews/style.md ===")
	if secIdx == -1 || styleIdx == -1 {
		t.Fatalf("Combined() missing headers:\n%s", combined)
	}
	if secIdx > styleIdx {
		t.Error("Combined() artifacts out of RelPath order")
	}
	if !strings.Contains(combined, "sql injection in login") {
		t.Errorf("Combined() missing artifact body:\n%s", combined)
	}

	t.Run("unreadable artifact fails", func(t *testing.T) {
		_, err := Combined([]Artifact{{Path: filepath.Join(dir, "gone.md"), RelPath: "gone.md"}})
		if err == nil {
			t.Fatal("Combined() error = nil, want error")
		}
	})
}
