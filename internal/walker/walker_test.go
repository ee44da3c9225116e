package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func relPaths(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestWalkFindsMarkdownOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "database_latency.md", "# Database Latency High")
	writeFile(t, root, "nested/cache_errors.md", "# Cache Errors")
	writeFile(t, root, "notes.txt", "not a runbook")
	writeFile(t, root, "deploy.sh", "#!/bin/sh")

	files, err := Walk(Config{RootDir: root})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	got := relPaths(files)
	if len(got) != 2 {
		t.Fatalf("got %v, want 2 markdown files", got)
	}
	for _, rel := range got {
		if !strings.HasSuffix(rel, ".md") {
			t.Errorf("non-markdown file included: %s", rel)
		}
	}
}

func TestWalkExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "database_latency.md", "# Database Latency High")
	writeFile(t, root, "drafts/wip.md", "# WIP")

	files, err := Walk(Config{RootDir: root, Exclude: []string{"drafts/**"}})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	got := relPaths(files)
	if len(got) != 1 || got[0] != "database_latency.md" {
		t.Fatalf("got %v, want only database_latency.md", got)
	}
}

func TestWalkSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "runbook.md", "# Runbook")
	writeFile(t, root, "node_modules/pkg/readme.md", "# Package")
	writeFile(t, root, ".git/description.md", "# Git")

	files, err := Walk(Config{RootDir: root})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if got := relPaths(files); len(got) != 1 || got[0] != "runbook.md" {
		t.Fatalf("got %v, want only runbook.md", got)
	}
}

func TestWalkHonoursGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "ignored.md\n")
	writeFile(t, root, "kept.md", "# Kept")
	writeFile(t, root, "ignored.md", "# Ignored")

	files, err := Walk(Config{RootDir: root})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if got := relPaths(files); len(got) != 1 || got[0] != "kept.md" {
		t.Fatalf("got %v, want only kept.md", got)
	}
}

func TestWalkSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.md", "# Small")
	writeFile(t, root, "big.md", strings.Repeat("x", 2048))

	files, err := Walk(Config{RootDir: root, MaxFileSize: 1024})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if got := relPaths(files); len(got) != 1 || got[0] != "small.md" {
		t.Fatalf("got %v, want only small.md", got)
	}
}

func TestWalkContentHashChangesWithContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "runbook.md", "# v1")

	first, err := Walk(Config{RootDir: root})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	writeFile(t, root, "runbook.md", "# v2")
	second, err := Walk(Config{RootDir: root})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("unexpected file counts %d, %d", len(first), len(second))
	}
	if first[0].ContentHash == second[0].ContentHash {
		t.Error("hash should change when content changes")
	}
	if len(first[0].ContentHash) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(first[0].ContentHash))
	}
}

func TestMatchesIncludeAndExclude(t *testing.T) {
	cases := []struct {
		rel      string
		patterns []string
		want     bool
	}{
		{"a/b/c.md", []string{"**/*.md"}, true},
		{"a/b/c.md", []string{"*.md"}, true}, // bare filename match
		{"a/b/c.txt", []string{"**/*.md"}, false},
		{"drafts/x.md", []string{"drafts/**"}, true},
	}
	for _, tc := range cases {
		if got := matchesAny(tc.rel, tc.patterns); got != tc.want {
			t.Errorf("matchesAny(%q, %v) = %v, want %v", tc.rel, tc.patterns, got, tc.want)
		}
	}
}
