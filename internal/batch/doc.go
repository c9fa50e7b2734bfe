// Package batch drives the tag decoder over directories of field frames.
//
// A Runner walks a directory tree, derives each frame's timestamp from its
// file name and its population from the enclosing directories, decodes the
// frame with that population's restricted codebook, and streams the records
// to a sink. Frames named in the processed log are skipped, so an interrupted
// run resumes where it stopped.
//
// Per-frame failures are logged and counted; only sink failures and
// cancellation end a run early.
package batch
