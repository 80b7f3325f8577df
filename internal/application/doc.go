// Package application provides application initialization and dependency wiring.
// It builds the resolver from the loaded configuration and renders every
// command's result as text, JSON or YAML, keeping the main package focused
// on CLI parsing.
package application
