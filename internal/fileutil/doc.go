// Package fileutil holds small filesystem helpers for saving recordings.
package fileutil
