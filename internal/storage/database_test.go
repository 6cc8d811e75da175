package storage

import (
	"errors"
	"testing"
	"time"

	"tripplanner/internal/config"

	"github.com/go-sql-driver/mysql"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// second run is a no-op
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}

	insert := `INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	if _, err := db.Exec(insert, "Ann", "ann@example.com", "h", time.Now().UTC()); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	_, err = db.Exec(insert, "Ann Again", "ann@example.com", "h", time.Now().UTC())
	if err == nil {
		t.Fatalf("expected unique violation")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected IsUniqueViolation for %v", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
	if err := Migrate(nil, "oracle"); err == nil {
		t.Fatalf("expected migrate error for unsupported driver")
	}
}

func TestIsUniqueViolationOtherErrors(t *testing.T) {
	if IsUniqueViolation(nil) {
		t.Fatalf("nil is not a violation")
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Fatalf("plain error is not a violation")
	}
}

func TestMySQLDSNEnablesParseTime(t *testing.T) {
	cases := map[string]config.DatabaseConfig{
		"assembled":              {Driver: "mysql", Host: "db", Port: 3307, Username: "u", Password: "p", DBName: "trips"},
		"assembled with params":  {Driver: "mysql", Host: "db", Username: "u", Password: "p", DBName: "trips", Params: "charset=utf8mb4"},
		"supplied":               {Driver: "mysql", DSN: "u:p@tcp(db:3306)/trips"},
		"supplied parseTime off": {Driver: "mysql", DSN: "u:p@tcp(db:3306)/trips?parseTime=false"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			dsn, err := mysqlDSN(cfg)
			if err != nil {
				t.Fatalf("mysqlDSN error: %v", err)
			}
			mc, err := mysql.ParseDSN(dsn)
			if err != nil {
				t.Fatalf("parse %q: %v", dsn, err)
			}
			if !mc.ParseTime {
				t.Fatalf("parseTime not enabled in %q", dsn)
			}
			if mc.User != "u" || mc.Passwd != "p" || mc.DBName != "trips" {
				t.Fatalf("credentials lost in %q", dsn)
			}
		})
	}

	dsn, err := mysqlDSN(config.DatabaseConfig{Driver: "mysql", Host: "db", Port: 3307, Username: "u", DBName: "trips"})
	if err != nil {
		t.Fatalf("mysqlDSN error: %v", err)
	}
	mc, _ := mysql.ParseDSN(dsn)
	if mc.Addr != "db:3307" || mc.Net != "tcp" {
		t.Fatalf("unexpected address %s/%s", mc.Net, mc.Addr)
	}
}

func TestMySQLDSNRejectsMalformed(t *testing.T) {
	if _, err := mysqlDSN(config.DatabaseConfig{Driver: "mysql", DSN: "u:p@tcp(db:3306)trips"}); err == nil {
		t.Fatalf("expected error for malformed dsn")
	}
}
