package config

import (
	"fmt"
	"strings"
)

// JournalMode is the SQLite rollback journal setting
type JournalMode string

const (
	JournalDelete   JournalMode = "DELETE"   // SQLite default
	JournalTruncate JournalMode = "TRUNCATE" // truncate instead of delete
	JournalPersist  JournalMode = "PERSIST"  // keep the journal, zero its header
	JournalMemory   JournalMode = "MEMORY"   // journal in memory
	JournalWAL      JournalMode = "WAL"      // write-ahead log
	JournalOff      JournalMode = "OFF"      // no journal, no rollback
)

// ParseJournalMode converts a string to JournalMode, defaulting to JournalWAL
func ParseJournalMode(s string) JournalMode {
	switch JournalMode(strings.ToUpper(s)) {
	case JournalDelete:
		return JournalDelete
	case JournalTruncate:
		return JournalTruncate
	case JournalPersist:
		return JournalPersist
	case JournalMemory:
		return JournalMemory
	case JournalWAL:
		return JournalWAL
	case JournalOff:
		return JournalOff
	default:
		return JournalWAL
	}
}

// Valid reports whether m is a mode SQLite understands
func (m JournalMode) Valid() bool {
	return ParseJournalMode(string(m)) == JournalMode(strings.ToUpper(string(m)))
}

// Rollback reports whether the mode keeps enough state for ROLLBACK
func (m JournalMode) Rollback() bool {
	return m != JournalOff
}

// Pragmas returns the connection pragmas in the `name(value)` form the
// driver accepts as `_pragma` DSN parameters.
func (d DatabaseConfig) Pragmas() []string {
	pragmas := []string{fmt.Sprintf("journal_mode(%s)", ParseJournalMode(string(d.JournalMode)))}
	if ms := d.BusyTimeout.Duration().Milliseconds(); ms > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", ms))
	}
	if d.ForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	return pragmas
}
