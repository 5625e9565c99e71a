package db

import (
	"strings"
	"testing"
)

func findForeignKey(t *testing.T, name string) foreignKey {
	t.Helper()
	for _, fk := range foreignKeys {
		if fk.Name == name {
			return fk
		}
	}
	t.Fatalf("foreign key %q not declared", name)
	return foreignKey{}
}

func TestLeakTestUserConstraintsDeclared(t *testing.T) {
	for _, tc := range []struct {
		name   string
		column string
	}{
		{"fk_tank_leak_test_welder_id", "welder_id"},
		{"fk_tank_leak_test_quality_inspector_id", "quality_inspector_id"},
	} {
		fk := findForeignKey(t, tc.name)
		if fk.Table != "tank_leak_test" || fk.Column != tc.column {
			t.Fatalf("%s: got table=%q column=%q", tc.name, fk.Table, fk.Column)
		}
		if fk.RefTable != "user" || fk.RefCol != "id" {
			t.Fatalf("%s: expected reference to user.id, got %s.%s", tc.name, fk.RefTable, fk.RefCol)
		}
		if fk.OnDelete != "RESTRICT" {
			t.Fatalf("%s: expected ON DELETE RESTRICT, got %s", tc.name, fk.OnDelete)
		}
	}
}

func TestUserTokenConstraintCascades(t *testing.T) {
	fk := findForeignKey(t, "fk_user_token_user_id")
	if fk.OnDelete != "CASCADE" {
		t.Fatalf("expected ON DELETE CASCADE, got %s", fk.OnDelete)
	}
}

func TestForeignKeySQL(t *testing.T) {
	fk := findForeignKey(t, "fk_tank_leak_test_welder_id")
	drop := fk.dropSQL()
	if !strings.Contains(drop, `DROP CONSTRAINT IF EXISTS "fk_tank_leak_test_welder_id"`) {
		t.Fatalf("unexpected drop statement: %s", drop)
	}
	add := fk.addSQL()
	for _, want := range []string{
		`ALTER TABLE "tank_leak_test"`,
		`FOREIGN KEY ("welder_id")`,
		`REFERENCES "user"("id")`,
		`ON DELETE RESTRICT`,
	} {
		if !strings.Contains(add, want) {
			t.Fatalf("add statement missing %q: %s", want, add)
		}
	}
}
