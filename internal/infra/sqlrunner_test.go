package infra

import "testing"

func TestExtractMarker(t *testing.T) {
	query := "--sql 0b54f3f2-9e5d-4d8c-8f33-0e1a2b3c4d5e\nselect 1"
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker returned error: %v", err)
	}
	if marker != "0b54f3f2-9e5d-4d8c-8f33-0e1a2b3c4d5e" {
		t.Fatalf("marker = %q", marker)
	}
	if trimmed != "select 1" {
		t.Fatalf("trimmed = %q", trimmed)
	}
}

func TestExtractMarkerRejectsUnmarkedQuery(t *testing.T) {
	for _, query := range []string{
		"select 1",
		"-- sql 0b54f3f2-9e5d-4d8c-8f33-0e1a2b3c4d5e\nselect 1",
		"--sql not-a-uuid\nselect 1",
	} {
		if _, _, err := extractMarker(query); err == nil {
			t.Fatalf("extractMarker(%q) should fail", query)
		}
	}
}
