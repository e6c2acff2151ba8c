// Package preflight reports whether a host is ready to record.
//
// RunDiagnostics composes encoder discovery, platform command resolution, and
// device enumeration into one Report with a recommended device. It never
// returns an error; problems become Warnings or Errors entries so the CLI
// "micrec doctor" command can print guidance directly.
//
// RunAll and the individual check functions (CheckEncoder,
// CheckDirectoryAccess) back the pass/fail table doctor prints for the
// configured paths.
package preflight
