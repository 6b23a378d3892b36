package markov

// ProgressFunc receives the completion ratio of tensor construction, in [0, 1].
type ProgressFunc func(ratio float64)

// CountTrigrams scans the corpus once and returns the N×N×N count tensor where
// count[i][j][k] is the number of times the pair (i, j) was followed by k.
// Every word contributes len(word)+1 increments: the window starts on two
// sentinels and the word is closed by one trailing sentinel.
//
// Words are processed sequentially since increments may hit the same cell.
func CountTrigrams(c *Corpus, a *Alphabet, progress ProgressFunc) Tensor[int] {
	n := a.Size()
	counts := NewTensor[int](n)

	total := len(c.words)
	step := total/1000 + 1
	for w, word := range c.words {
		prev2, prev1 := 0, 0
		for _, r := range word {
			cur := a.index[r]
			counts.Cells[(prev2*n+prev1)*n+cur]++
			prev2, prev1 = prev1, cur
		}
		counts.Cells[(prev2*n+prev1)*n]++

		if progress != nil && w%step == 0 {
			progress(float64(w) / float64(total))
		}
	}
	if progress != nil {
		progress(1)
	}
	return counts
}
