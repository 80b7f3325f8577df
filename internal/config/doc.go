// Package config loads the workflow configuration (a YAML file in the layout
// the pipeline's Snakemake rules read) and the resolver's own runtime settings
// from environment variables and CLI flags, with precedence: CLI flags >
// Environment variables > YAML config > Defaults.
//
// The YAML is decoded once into a typed Workflow: input locations are
// classified as local or remote, and "default" entries in the exposure,
// traits and filter sections are merged into each build or origin so that
// lookups never need a fallback chain.
package config
