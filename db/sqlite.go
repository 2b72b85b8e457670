package db

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// SQLiteLowerFunc is a Unicode-aware lower() installed on every SQLite
// connection. SQLite's built-in lower() and NOCASE only fold ASCII.
const SQLiteLowerFunc = "unicode_lower"

// sqliteDriver is go-sqlite3 with the connection hook below.
const sqliteDriver = "sqlite3_pharmadex"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(SQLiteLowerFunc, unicodeLower, true)
		},
	})
}

// unicodeLower folds text like strings.ToLower and passes NULL through.
// go-sqlite3 hands NULL to interface arguments as a nil []byte.
func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	}
	return v
}
