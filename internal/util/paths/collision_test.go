package paths

import (
	"path/filepath"
	"testing"

	"github.com/rescale/pdrive/internal/models"
)

func TestResolveCollisions_NoCollisions(t *testing.T) {
	targets := []DownloadTarget{
		{FileID: 1, Name: "file1.zip", LocalPath: "/dest/file1.zip", Size: 100},
		{FileID: 2, Name: "file2.zip", LocalPath: "/dest/file2.zip", Size: 200},
	}

	result, count := ResolveCollisions(targets)

	if count != 0 {
		t.Errorf("expected 0 collisions, got %d", count)
	}
	if result[0].LocalPath != "/dest/file1.zip" {
		t.Errorf("expected /dest/file1.zip, got %s", result[0].LocalPath)
	}
	if result[1].LocalPath != "/dest/file2.zip" {
		t.Errorf("expected /dest/file2.zip, got %s", result[1].LocalPath)
	}
}

func TestResolveCollisions_Duplicates(t *testing.T) {
	targets := []DownloadTarget{
		{FileID: 7, Name: "output.zip", LocalPath: "/dest/output.zip"},
		{FileID: 9, Name: "output.zip", LocalPath: "/dest/output.zip"},
		{FileID: 3, Name: "notes", LocalPath: "/dest/notes"},
		{FileID: 4, Name: "notes", LocalPath: "/dest/notes"},
		{FileID: 5, Name: "unique.txt", LocalPath: "/dest/unique.txt"},
	}

	result, count := ResolveCollisions(targets)

	if count != 4 {
		t.Errorf("expected 4 collisions, got %d", count)
	}
	want := []string{"/dest/output_7.zip", "/dest/output_9.zip", "/dest/notes_3", "/dest/notes_4", "/dest/unique.txt"}
	for i, w := range want {
		if result[i].LocalPath != w {
			t.Errorf("target %d: expected %s, got %s", i, w, result[i].LocalPath)
		}
	}
}

func TestResolveCollisions_EmptyList(t *testing.T) {
	result, count := ResolveCollisions(nil)
	if count != 0 || len(result) != 0 {
		t.Errorf("expected empty result, got %v (%d)", result, count)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`..\..\boot.ini`, "boot.ini"},
		{"..", "file_42"},
		{"   ", "file_42"},
		{"/", "file_42"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.name, 42); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPlanDownloads(t *testing.T) {
	files := []models.File{
		{ID: 1, Name: "a.txt", Size: 10},
		{ID: 2, Name: "a.txt", Size: 20},
		{ID: 3, Name: "sub/b.txt", Size: 30},
	}

	targets, collisions := PlanDownloads(files, "out")

	if collisions != 2 {
		t.Errorf("expected 2 collisions, got %d", collisions)
	}
	if targets[0].LocalPath != filepath.Join("out", "a_1.txt") {
		t.Errorf("unexpected path %s", targets[0].LocalPath)
	}
	if targets[2].LocalPath != filepath.Join("out", "b.txt") || targets[2].Size != 30 {
		t.Errorf("unexpected target %+v", targets[2])
	}
}
