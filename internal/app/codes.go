package app

import (
	"fmt"

	"github.com/dkeye/Murmur/internal/domain"
	nanoid "github.com/jaevor/go-nanoid"
)

// CodeGenerator returns a fresh candidate join code on every call.
type CodeGenerator func() string

// NewCodeGenerator draws fixed-length codes from domain.CodeAlphabet.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(domain.CodeAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("code generator: %w", err)
	}
	return CodeGenerator(gen), nil
}
