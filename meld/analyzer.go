package meld

import "github.com/wfunc/dhumbal/card"

// HandHasAnyMeld reports whether some subset of hand forms a legal meld.
func HandHasAnyMeld(hand []card.Card) bool {
	_, _, ok := FindMeld(hand)
	return ok
}

// FindMeld returns the first legal meld in hand, trying smaller groups first.
func FindMeld(hand []card.Card) ([]card.Card, Result, bool) {
	maxSize := min(MaxSize, len(hand))
	buf := make([]card.Card, 0, MaxSize)
	for size := minSet; size <= maxSize; size++ {
		var found []card.Card
		var res Result
		eachCombination(len(hand), size, func(idx []int) bool {
			buf = buf[:0]
			for _, i := range idx {
				buf = append(buf, hand[i])
			}
			r, err := Validate(buf)
			if err != nil {
				return true
			}
			found = append([]card.Card(nil), buf...)
			res = r
			return false
		})
		if found != nil {
			return found, res, true
		}
	}
	return nil, nil, false
}

// eachCombination calls fn with every k-subset of [0,n) in lexicographic order
// until fn returns false.
func eachCombination(n, k int, fn func(idx []int) bool) {
	if k > n || k <= 0 {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
