// Package format renders syntax trees, parse forests and diagnostics.
package format

import (
	"github.com/dhamidi/gll/bsr"
)

// ForestEncoder writes a parse forest.
type ForestEncoder interface {
	Encode(set *bsr.Set) error
	MarshalText(set *bsr.Set) ([]byte, error)
}
