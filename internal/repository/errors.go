// Package repository holds the MySQL data access layer.  Each table group
// has a *Repo type built around a *sql.DB; methods ending in Tx take the
// caller's transaction instead so a service can span several repos.
//
// The sentinel errors below are shared across repositories so handlers can
// map them onto HTTP status codes without looking at driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a delete would drop rows that must be
// kept, such as paid tickets.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique key violation.  When key is
// not empty the violated index name must also match.
func isDuplicate(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}
