// Package store persists catalog snapshots to PostgreSQL.
//
// The store is a diagnostic cache of what the billing service last
// reported, keyed by (product_id, product_type). It never records
// purchases.
package store
