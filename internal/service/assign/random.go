package assign

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Rand supplies the randomness for first-attempt delegate selection. It is an
// interface so property tests can substitute a deterministic source.
type Rand interface {
	// Intn returns a uniform random int in [0, n). n must be > 0.
	Intn(n int) (int, error)
}

// CryptoRand draws from the operating system's CSPRNG.
type CryptoRand struct{}

func (CryptoRand) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("intn: invalid bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("intn: %w", err)
	}
	return int(v.Int64()), nil
}
