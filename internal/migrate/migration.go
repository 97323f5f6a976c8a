// Package migrate is the code-first schema migration engine. Each
// domain module declares an ordered list of Migration values; the
// Runner applies pending ones against Postgres and records every
// applied migration in a ledger table it owns exclusively.
package migrate

import (
	"fmt"

	"github.com/mirajehossain/usersvc/internal/checksum"
)

// Migration describes one schema change owned by a module. Versions
// are positive integers unique within their module and define
// execution order; names are labels only.
type Migration struct {
	Module  string
	Version int
	Name    string
	SQL     string
}

func New(module string, version int, name, sql string) Migration {
	return Migration{Module: module, Version: version, Name: name, SQL: sql}
}

// ID is a human-facing identifier for logs and error messages. The
// ledger is keyed on (module, version), not on this string.
func (m Migration) ID() string {
	return fmt.Sprintf("%s:version_%d", m.Module, m.Version)
}

// Checksum fingerprints the SQL body alone; renaming a migration does
// not change its checksum.
func (m Migration) Checksum() string {
	return checksum.SHA256([]byte(m.SQL))
}

func (m Migration) key() string {
	return ledgerKey(m.Module, m.Version)
}

func ledgerKey(module string, version int) string {
	return fmt.Sprintf("%s:%d", module, version)
}
