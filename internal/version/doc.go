// Package version implements extension versions and version constraints.
// Versions have a total order: dot-separated numeric components compared
// left to right (missing components count as zero), then the trailing
// qualifier compared lexically.
package version
