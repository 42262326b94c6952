// Package sqlitestore implements trybeauth.IdentityStore on a single SQLite
// file. Open applies the embedded migrations. The UNIQUE constraint on email
// backs the duplicate check, so concurrent registrations for one email
// resolve to one row and trybeauth.ErrEmailAlreadyExists for the rest.
package sqlitestore
