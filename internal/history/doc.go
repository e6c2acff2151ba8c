// Package history keeps a SQLite log of finished recording sessions for the
// micrec CLI. The recorder core persists nothing; the CLI records one Entry per
// session from its listener callbacks.
package history
