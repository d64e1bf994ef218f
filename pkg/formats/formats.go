// Package formats provides parsers for binary model container formats.
package formats

// Note: SGM is implemented in sgm.go
