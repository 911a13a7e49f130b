// Package util contains any functions used across the application that don't match
// any other package
package util

import gonanoid "github.com/matoous/go-nanoid/v2"

// Charset is the alphabet used for generated IDs
const Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandStr returns a random string of n letters. Safe for concurrent use.
func RandStr(n int) string {
	return gonanoid.MustGenerate(Charset, n)
}

// NewID returns a new 16 letter record ID
func NewID() (string, error) {
	return gonanoid.Generate(Charset, 16)
}
