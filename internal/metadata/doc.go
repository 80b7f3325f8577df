// Package metadata reads, merges and writes the tab-separated metadata files
// produced for each input origin.
//
// Combining keeps every column seen in any input, in first-seen order, and
// appends one column per origin marking with "yes" which origins a strain
// came from. Inputs are applied in order and a later non-empty value replaces
// an earlier one.
package metadata
