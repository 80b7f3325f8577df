// Package resolver derives the file paths, upload targets and per-build
// settings that the workflow's rules need from a loaded configuration.
//
// A Resolver is built once from a config.Workflow and is safe for concurrent
// use. Every method is a pure function of the configuration and its
// arguments; the only ambient input is the clock, used when a date defaults
// to today.
package resolver
