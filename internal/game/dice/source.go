package dice

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	mrand "math/rand"
	"sync"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are cryptographically secure and uniformly
// distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// seededSource is a deterministic Source for replayable rolls and tests.
type seededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource returns a deterministic Source. Two sources created with
// the same seed produce the same sequence.
func NewSeededSource(seed int64) Source {
	return &seededSource{rng: mrand.New(mrand.NewSource(seed))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// FixedSource replays a fixed sequence of die faces. Each value is the face
// the die shows (1-based); it is converted to Intn's 0-based range and
// clamped into [0, n). The sequence wraps around when exhausted.
type FixedSource struct {
	mu    sync.Mutex
	faces []int
	next  int
}

// NewFixedSource returns a FixedSource yielding faces in order.
//
// Precondition: len(faces) > 0.
func NewFixedSource(faces ...int) *FixedSource {
	return &FixedSource{faces: faces}
}

// Intn returns the next scripted face minus one, clamped into [0, n).
func (f *FixedSource) Intn(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.faces[f.next%len(f.faces)] - 1
	f.next++
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
