/*
Package corpus loads word lists for the markov package: it decodes text files in
a caller-chosen character encoding and keeps named corpora in a SQLite database
so that a long-running service can rebuild models without touching the
filesystem. Only words are stored; trained models are never persisted.
*/
package corpus
