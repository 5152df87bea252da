// Package job runs installation planning: it validates requests, resolves
// every requested extension with a single resolver and assembles the
// resulting plan. A run never modifies installed state.
package job
