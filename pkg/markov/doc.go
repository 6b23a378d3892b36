/*
Package markov builds a character-level trigram (order-2 Markov) model from a word
corpus and synthesises new, pronounceable-looking words from it.

A model is built in two phases. Build scans the corpus once, discovers its
alphabet and accumulates a trigram count tensor; it then derives the two
probability views (the smoothed bigram matrix used for heat-map rendering and the
trigram conditional matrix used for sampling) and keeps them for the lifetime of
the Model. Nothing is mutated after Build returns, so a Model may be shared
freely between goroutines.

	c := markov.NewCorpus([]string{"cat", "car", "can"})
	m := markov.Build(c, markov.WithWorkers(4))
	buckets, err := m.Generate(ctx, markov.Request{MinSize: 3, MaxSize: 6, NumWords: 10})

Index 0 of every alphabet is a boundary sentinel standing for "start or end of
word"; it never collides with a corpus character.
*/
package markov
