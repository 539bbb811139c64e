package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return path
}

func readEnv(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestSetEntry(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		key     string
		value   string
		want    string
	}{
		{"new file", "", "API_KEY", "secret123", "API_KEY=secret123\n"},
		{"replace in place", "# comment\nFOO=bar\nBAZ=qux\n", "FOO", "updated", "# comment\nFOO=updated\nBAZ=qux\n"},
		{"append", "EXISTING=value\n", "NEW_KEY", "v", "EXISTING=value\nNEW_KEY=v\n"},
		{"quotes spaces", "", "TOKEN", "value with spaces", "TOKEN=\"value with spaces\"\n"},
		{"keeps age blob bare", "", "SLACK_BOT_TOKEN", "ENC[age:YWJj+/=]", "SLACK_BOT_TOKEN=ENC[age:YWJj+/=]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeEnv(t, tt.initial)
			if err := SetEntry(path, tt.key, tt.value); err != nil {
				t.Fatalf("SetEntry: %v", err)
			}
			if diff := cmp.Diff(tt.want, readEnv(t, path)); diff != "" {
				t.Errorf("file mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSetEntry_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".env")
	if err := SetEntry(path, "KEY", "val"); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestRemoveEntry(t *testing.T) {
	path := writeEnv(t, "# keys\nA=1\nB=2\n")

	removed, err := RemoveEntry(path, "A")
	if err != nil || !removed {
		t.Fatalf("RemoveEntry(A) = %v, %v", removed, err)
	}
	if diff := cmp.Diff("# keys\nB=2\n", readEnv(t, path)); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}

	removed, err = RemoveEntry(path, "MISSING")
	if err != nil || removed {
		t.Fatalf("RemoveEntry(MISSING) = %v, %v", removed, err)
	}
}

func TestListEntries(t *testing.T) {
	path := writeEnv(t, "# comment\nPLAIN=x\n\nSECRET=\"ENC[age:abc]\"\nnot a line\n")

	got, err := ListEntries(path)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	want := []EnvEntry{{Key: "PLAIN"}, {Key: "SECRET", Encrypted: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	none, err := ListEntries(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil || len(none) != 0 {
		t.Fatalf("missing file = %v, %v", none, err)
	}
}
