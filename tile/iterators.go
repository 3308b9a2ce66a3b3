package tile

import (
	"errors"
	"iter"
)

var errVisitCancelled = errors.New("visit cancelled")

// IterTiles returns an iterator over all tiles in the tileset.
// It yields tile names and their data. Iteration may panic on unrecoverable errors.
func IterTiles(r Visitor) iter.Seq2[Name, []byte] {
	return func(yield func(Name, []byte) bool) {
		err := r.VisitTiles(func(name Name, tileData []byte) error {
			if !yield(name, tileData) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}
