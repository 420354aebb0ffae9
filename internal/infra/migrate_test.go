package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitSQL(t *testing.T) {
	in := StripSQLComments(`-- header
CREATE TABLE a (id INT);

-- second
CREATE INDEX b ON a (id);
`)
	got := SplitSQL(in)
	if len(got) != 2 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id INT)" {
		t.Fatalf("first statement = %q", got[0])
	}
}

func TestRepoMigrationsParse(t *testing.T) {
	root, err := RepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	names, err := filepath.Glob(filepath.Join(root, "migrations", "*.sql"))
	if err != nil || len(names) == 0 {
		t.Fatalf("no migrations found: %v", err)
	}
	for _, n := range names {
		b, err := os.ReadFile(n)
		if err != nil {
			t.Fatal(err)
		}
		if len(SplitSQL(StripSQLComments(string(b)))) == 0 {
			t.Fatalf("%s has no statements", n)
		}
	}
}
