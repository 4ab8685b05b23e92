// Package services wires the retrieval pipeline together: building an index
// from the corpus, answering questions against it and reloading it when the
// corpus changes. It talks to the outside world only through driven ports.
package services
