// Package database persists audit verdicts and per-check results.
//
// Two backends exist: an embedded SQLite store for single-operator CLI
// use and a PostgreSQL store for the shared service deployment. Both
// implement outcome.Store and the history queries the report tooling
// reads.
package database
