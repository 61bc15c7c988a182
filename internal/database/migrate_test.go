package database

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

// validActions must match the ENUM on activity_log.action and the Action
// constants of the activity plugin.
var validActions = map[string]bool{
	"CREATE": true,
	"UPDATE": true,
	"DELETE": true,
}

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	// thisFile is internal/database/migrate_test.go, project root is two dirs up.
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")
	dir := filepath.Join(projectRoot, "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

// TestMigrations_ActionEnum checks that the action ENUM defined on
// activity_log lists exactly the actions the service accepts. A drift here
// surfaces as "Data truncated for column 'action'" (Error 1265) on insert.
func TestMigrations_ActionEnum(t *testing.T) {
	dir := migrationsDir(t)
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no migration files found")
	}

	enumPattern := regexp.MustCompile(`(?i)action\s+ENUM\s*\(([^)]*)\)`)
	valuePattern := regexp.MustCompile(`'([^']+)'`)

	found := false
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}

		for _, m := range enumPattern.FindAllStringSubmatch(string(data), -1) {
			found = true
			seen := map[string]bool{}
			for _, v := range valuePattern.FindAllStringSubmatch(m[1], -1) {
				if !validActions[v[1]] {
					t.Errorf("%s: unexpected action ENUM value %q", filepath.Base(f), v[1])
				}
				seen[v[1]] = true
			}
			for want := range validActions {
				if !seen[want] {
					t.Errorf("%s: action ENUM is missing %q", filepath.Base(f), want)
				}
			}
		}
	}
	if !found {
		t.Error("no action ENUM definition found in migrations")
	}
}

// TestMigrations_UpDownPairs ensures every .up.sql has a matching .down.sql.
func TestMigrations_UpDownPairs(t *testing.T) {
	dir := migrationsDir(t)
	upFiles, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing up files: %v", err)
	}

	for _, up := range upFiles {
		down := strings.Replace(up, ".up.sql", ".down.sql", 1)
		if _, err := os.Stat(down); err != nil {
			t.Errorf("missing down migration for %s", filepath.Base(up))
		}
	}
}
