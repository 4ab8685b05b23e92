// Package normalisers provides implementations of the Normaliser interface
// for the corpus file formats. Each normaliser knows how to extract text
// from files with specific extensions.
//
// Normalisers are registered with the Registry at startup. PDFs produce
// one Document per non-blank page; other formats produce one Document.
package normalisers
