// Package plan holds the output of a planning run: the per-request
// dependency trees annotated with actions, and the flat dependency-first
// action list derived from them.
package plan
