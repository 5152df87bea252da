// Package manifest handles parsing and validation of extension catalogs.
// A catalog is a YAML document listing extension descriptors; catalogs feed
// the core extension list and file-backed repositories. Catalogs are
// validated against an embedded JSON Schema before use.
package manifest
