package postgresql

import (
	"strings"
	"testing"

	"github.com/lib/pq"

	"csvbatch/internal/core"
)

func TestBuildStatement(t *testing.T) {
	insert, err := BuildStatement("public", "customers", "insert")
	if err != nil {
		t.Fatalf("BuildStatement failed: %v", err)
	}
	want := `INSERT INTO "public"."customers" ("id", "first_name", "last_name", "email", "gender", "contact_no", "country", "dob") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if insert != want {
		t.Errorf("insert statement:\n got %s\nwant %s", insert, want)
	}

	for _, mode := range []string{"replace", "upsert"} {
		stmt, err := BuildStatement("", "customers", mode)
		if err != nil {
			t.Fatalf("BuildStatement(%s) failed: %v", mode, err)
		}
		if !strings.HasPrefix(stmt, `INSERT INTO "customers"`) {
			t.Errorf("Table without schema should not be qualified: %s", stmt)
		}
		if !strings.Contains(stmt, `ON CONFLICT ("id") DO UPDATE SET "first_name" = EXCLUDED."first_name"`) {
			t.Errorf("Unexpected %s statement: %s", mode, stmt)
		}
	}

	if _, err := BuildStatement("", "customers", "copy"); err == nil {
		t.Error("Unknown write mode should fail")
	}
}

func TestParameter_DSN(t *testing.T) {
	var p Parameter
	err := core.DecodeParameter(map[string]any{
		"username": "app",
		"password": "p@ss word",
		"host":     "db.local",
		"database": "crm",
		"table":    "customers",
	}, &p)
	if err != nil {
		t.Fatalf("DecodeParameter failed: %v", err)
	}
	if p.Port != 5432 || p.Schema != "public" || p.SSLMode != "disable" {
		t.Errorf("Unexpected defaults: %+v", p)
	}

	conn, err := pq.ParseURL(p.DSN())
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	for _, part := range []string{"host=db.local", "port=5432", "dbname=crm", "user=app", "sslmode=disable"} {
		if !strings.Contains(conn, part) {
			t.Errorf("Connection string %q should contain %q", conn, part)
		}
	}
}

func TestNewPostgreSQLWriter(t *testing.T) {
	p := &Parameter{}
	p.ApplyDefaults()
	p.Table = "customers"
	p.WriteMode = "upsert"
	w, err := NewPostgreSQLWriter(p, nil)
	if err != nil {
		t.Fatalf("NewPostgreSQLWriter failed: %v", err)
	}
	if !strings.Contains(w.Statement(), "ON CONFLICT") {
		t.Errorf("Unexpected statement: %s", w.Statement())
	}
}
