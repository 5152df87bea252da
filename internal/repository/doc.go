// Package repository defines the collaborators the planner queries: core
// extensions, installed extensions, remote repositories and the handler
// capability table. It also provides in-memory implementations and a
// priority Chain over several remote repositories.
package repository
