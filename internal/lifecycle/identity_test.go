package lifecycle

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string // marker file body; "-" means no file
		want    string
	}{
		{name: "no marker file", content: "-", want: "fallback"},
		{name: "simple override", content: "my-app\n", want: "my-app"},
		{name: "first line wins", content: "my-app\nsecond-line\n", want: "my-app"},
		{name: "whitespace trimmed", content: "  my-app  \n", want: "my-app"},
		{name: "empty file falls back", content: "", want: "fallback"},
		{name: "blank line falls back", content: "\n\n", want: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if tt.content != "-" {
				if err := os.WriteFile(filepath.Join(dir, IdentityMarkerFile), []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			if got := ResolveIdentity(dir, "fallback"); got != tt.want {
				t.Fatalf("ResolveIdentity = %q, want %q", got, tt.want)
			}
		})
	}
}
