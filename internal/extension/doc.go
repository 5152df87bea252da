// Package extension defines extension descriptors: identities, declared
// dependencies, features, and the core and installed variants that the
// planner consults before any remote repository.
package extension
