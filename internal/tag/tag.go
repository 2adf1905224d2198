// Package tag exposes build tags as constants, so code can branch on them
// without separate files for every check.
package tag
