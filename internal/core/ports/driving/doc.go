// Package driving defines the interfaces the core exposes to the
// CLI layer: the pipeline entry point and the scheduler.
package driving
