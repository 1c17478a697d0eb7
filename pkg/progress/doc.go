// Package progress provides a cancellable, subscribable job whose progress is
// simulated: on every tick the value advances by a random step until it
// reaches 100, the completed view is held briefly, and the job returns to idle.
//
// It stands in for real generation and export backends. A Simulator runs at
// most one job at a time; starting again supersedes the running job.
package progress
