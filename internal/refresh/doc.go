// Package refresh periodically re-queries the catalog for a configured
// set of products and hands each snapshot to a handler (typically the
// Postgres catalog store).
package refresh
