package main

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/decred/slog"
	mysql "github.com/go-sql-driver/mysql"

	"storefront/internal/kv"
)

// registerTiDBTLS registers the "tidb" TLS config referenced by DSNs that
// carry tls=tidb. When the CA file cannot be used it falls back to
// InsecureSkipVerify.
func registerTiDBTLS(caPath string, log slog.Logger) error {
	b, err := os.ReadFile(caPath)
	if err != nil {
		log.Warnf("Could not read CA file %s: %v, falling back to InsecureSkipVerify", caPath, err)
		return mysql.RegisterTLSConfig("tidb", &tls.Config{InsecureSkipVerify: true})
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(b) {
		log.Warnf("Could not parse CA file %s, falling back to InsecureSkipVerify", caPath)
		return mysql.RegisterTLSConfig("tidb", &tls.Config{InsecureSkipVerify: true})
	}
	return mysql.RegisterTLSConfig("tidb", &tls.Config{RootCAs: pool})
}

// openMySQL connects to the database at dsn and makes sure the key-value
// table exists.
func openMySQL(dsn, caPath string, log slog.Logger) (*sql.DB, error) {
	if strings.Contains(dsn, "tls=tidb") {
		if err := registerTiDBTLS(caPath, log); err != nil {
			return nil, fmt.Errorf("register tls: %w", err)
		}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := kv.EnsureTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure table: %w", err)
	}
	return db, nil
}
