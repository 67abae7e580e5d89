package pending

import (
	"testing"
)

func TestKey(t *testing.T) {
	tests := []struct {
		localPath string
		expected  string
	}{
		{"/share/mikro/plate1/a.tiff", "share/mikro/plate1/a.tiff"},
		{"//share/mikro/a.tiff", "share/mikro/a.tiff"},
		{"relative/path.tiff", "relative/path.tiff"},
	}

	for _, test := range tests {
		u := Upload{LocalPath: test.localPath}
		if got := u.Key(); got != test.expected {
			t.Errorf("Key(%q) = %q, expected %q", test.localPath, got, test.expected)
		}
	}
}

func TestKeyIsStable(t *testing.T) {
	u := Upload{ID: 1, LocalPath: "/share/mikro/a.tiff"}
	if u.Key() != u.Key() {
		t.Error("Key must be deterministic so re-uploads hit the same object")
	}
}
