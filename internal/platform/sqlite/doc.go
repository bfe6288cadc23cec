// Package sqlite implements the store interfaces on an embedded sqlite
// database, the engine's client-local persistence layer. The schema is
// versioned with goose and upgrades are additive only: new collections
// and indexes appear, existing ones are never altered or dropped by an
// upgrade.
package sqlite
