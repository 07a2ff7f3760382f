package otp

import (
	"crypto/rand"
	"math/big"
)

const (
	CodeMin = 100000
	CodeMax = 999999
)

var codeSpan = big.NewInt(CodeMax - CodeMin + 1)

// GenerateCode returns a uniformly distributed code in [CodeMin, CodeMax].
func GenerateCode() (int, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return 0, err
	}
	return CodeMin + int(n.Int64()), nil
}
