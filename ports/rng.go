package ports

import "math/rand"

// RNG provides named deterministic random streams for synthetic data
// generation. The same name and seed always yield the same sequence.
type RNG interface {
	// SeededStream creates a random number generator for a named stream.
	SeededStream(name string, seed int64) *rand.Rand
}
