package repos

import "gorm.io/gorm"

// supportsRowLocking reports whether the underlying dialect honors
// SELECT ... FOR UPDATE. SQLite has no such clause — it serializes
// writers at the file level instead — so repos fall back to a plain
// SELECT there; Postgres gets the real row lock.
func supportsRowLocking(db *gorm.DB) bool {
	if db == nil || db.Dialector == nil {
		return false
	}
	return db.Dialector.Name() == "postgres"
}
