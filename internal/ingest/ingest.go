// Package ingest provides the import engine for lineage.
//
// It reads loosely structured family descriptions, one person per line
// (NAME: ...; PARENTS: ...; SPOUSES: ...; SIBLINGS: ...; CHILDREN: ...),
// merges repeated mentions of the same person, assigns every person a
// generation level, and emits the JSON tree document consumed by the viewer.
//
// The pipeline is a pure function of its input text. All state lives in a
// single call, so an Engine can be shared between goroutines.
package ingest
