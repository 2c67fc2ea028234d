// Package pipeline turns a validated clip request into a delivered animation.
//
// A run acquires a private staging workspace, asks the video source to cut
// the selected range (as a finished animation or as an intermediate
// container), optionally renders it locally with palette-based colour
// reduction, optionally optimises it, and hands the result to a Deliverer.
// The workspace is removed on every exit path.
//
// Each step runs under its own timeout and the run as a whole under a
// wall-clock ceiling. Failures are wrapped with the services error markers
// so callers can report them generically and record the failing stage.
package pipeline
