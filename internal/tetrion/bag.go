package tetrion

import "math/rand"

// Bag is one permutation of all seven kinds.
type Bag [KindCount]PieceKind

// NewBag draws a bag from rng. Each slot draws uniformly until it hits a kind
// not used yet in this bag.
func NewBag(rng *rand.Rand) Bag {
	var (
		bag  Bag
		used [KindCount]bool
	)
	for i := range bag {
		for {
			kind := PieceKind(rng.Intn(KindCount))
			if !used[kind] {
				used[kind] = true
				bag[i] = kind
				break
			}
		}
	}
	return bag
}

// sequence hands out kinds from a current and a next bag so the previews can
// look further ahead than the current bag.
type sequence struct {
	rng   *rand.Rand
	bags  [2]Bag
	index int
}

func newSequence(seed uint64) sequence {
	rng := rand.New(rand.NewSource(int64(seed)))
	s := sequence{rng: rng}
	s.bags[0] = NewBag(rng)
	s.bags[1] = NewBag(rng)
	return s
}

// next returns the next kind and refills the bags on wrap-around.
func (s *sequence) next() PieceKind {
	kind := s.bags[0][s.index]
	s.index = (s.index + 1) % KindCount
	if s.index == 0 {
		s.bags[0] = s.bags[1]
		s.bags[1] = NewBag(s.rng)
	}
	return kind
}

// peek fills dst with the upcoming kinds without consuming them. dst must not
// be longer than one bag plus the rest of the current one.
func (s *sequence) peek(dst []PieceKind) {
	index, bag := s.index, 0
	for i := range dst {
		dst[i] = s.bags[bag][index]
		index++
		if index == KindCount {
			index = 0
			bag++
		}
	}
}
