// Package util provides common utility functions and data structures
//
// This package includes generic set implementations and a hierarchical path
// index used throughout the reminder engine
package util
