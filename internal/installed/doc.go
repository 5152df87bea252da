// Package installed persists which extensions are installed at which
// namespace in a SQLite database and answers installed-extension lookups
// for the planner.
package installed
