// Package resolver walks the dependency graph of requested extensions and
// produces plan nodes.
//
// Each request is looked up in the core repository first, then among the
// extensions installed at the request namespace (falling back to the root
// namespace), and finally in the remote repositories. Remote extensions are
// expanded recursively; core and installed ones are leaves. Any failure on
// a required dependency aborts resolution with an *InstallError.
package resolver
