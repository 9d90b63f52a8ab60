package postgres

import (
	"database/sql"
	"os"
	"strings"

	_ "github.com/lib/pq"
)

// Open opens a postgres pool with sane limits for a small API server.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return db, nil
}

// BuildDSNFromEnv resolves the connection string. DATABASE_URL wins
// (hosted deployments, forced sslmode); otherwise the DSN is assembled
// from PG_* variables with local-development defaults.
func BuildDSNFromEnv() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		if !strings.Contains(url, "sslmode=") {
			if strings.Contains(url, "?") {
				return url + "&sslmode=require"
			}
			return url + "?sslmode=require"
		}
		return url
	}

	host := os.Getenv("PG_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("PG_PORT")
	if port == "" {
		port = "5432"
	}
	user := os.Getenv("PG_USER")
	if user == "" {
		user = "postgres"
	}
	pass := os.Getenv("PG_PASSWORD")
	dbname := os.Getenv("PG_DB")
	if dbname == "" {
		dbname = "street_guide"
	}
	ssl := os.Getenv("PG_SSLMODE")
	if ssl == "" {
		ssl = "disable"
	}

	dsn := "postgres://" + user
	if pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + host + ":" + port + "/" + dbname + "?sslmode=" + ssl
	return dsn
}
