package db

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
)

// FoldFunction 是注册到 SQLite 连接上的 Unicode 大小写折叠函数名。
// SQLite 自带的 LOWER 与 LIKE 只折叠 ASCII 字母。
const FoldFunction = "unicode_fold"

// sqliteDriverName 在 mattn/go-sqlite3 之上注册了 FoldFunction。
const sqliteDriverName = "sqlite3_quill"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(FoldFunction, Fold, true)
		},
	})
}

// Fold returns the Unicode case folding of s, e.g. "ÉCOLE" → "école".
func Fold(s string) string {
	// a Caser keeps state, so each call gets its own
	return cases.Fold().String(s)
}
