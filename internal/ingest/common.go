package ingest

import (
	"errors"
	"fmt"
)

// DefaultMaxRounds bounds both the level relaxation and the spouse sync.
// It is a safety cap, not a property of the family graph.
const DefaultMaxRounds = 100

// DefaultMaxFileSize is 10MB.
const DefaultMaxFileSize = 10 * 1024 * 1024

var (
	// ErrEmptyInput is returned for empty or whitespace-only text.
	ErrEmptyInput = errors.New("input is empty")
	// ErrNoValidEntries is returned when no line carries a NAME field.
	ErrNoValidEntries = errors.New("no valid entries found")
	// ErrSerialization wraps a failure to encode the finished document.
	ErrSerialization = errors.New("serializing document")
	// ErrUnsupportedFile is returned by ImportFile for non-text files.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrFileTooLarge is returned when input exceeds Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

// ErrorKind is a stable classification of import failures.
type ErrorKind string

const (
	KindNone                 ErrorKind = ""
	KindEmptyInput           ErrorKind = "EmptyInput"
	KindNoValidEntries       ErrorKind = "NoValidEntries"
	KindSerializationFailure ErrorKind = "SerializationFailure"
	KindUnsupportedFile      ErrorKind = "UnsupportedFile"
	KindFileTooLarge         ErrorKind = "FileTooLarge"
	KindOther                ErrorKind = "Other"
)

// Kind classifies err. A nil error has KindNone.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrNoValidEntries):
		return KindNoValidEntries
	case errors.Is(err, ErrSerialization):
		return KindSerializationFailure
	case errors.Is(err, ErrUnsupportedFile):
		return KindUnsupportedFile
	case errors.Is(err, ErrFileTooLarge):
		return KindFileTooLarge
	default:
		return KindOther
	}
}

// IsUserError reports whether err describes a problem with the submitted
// text rather than an internal failure.
func IsUserError(err error) bool {
	switch Kind(err) {
	case KindEmptyInput, KindNoValidEntries, KindUnsupportedFile, KindFileTooLarge:
		return true
	}
	return false
}

// Person is one entry of the output tree document.
type Person struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Level      int      `json:"level"`
	Parents    []string `json:"parents"`
	Spouses    []string `json:"spouses"`
	Siblings   []string `json:"siblings"`
	Children   []string `json:"children"`
	ImageName  string   `json:"imageName"`
	IsImplicit bool     `json:"isImplicit"`
}

// Document is the ordered list of people handed to the tree viewer.
type Document []Person

// Find returns the person with the given display name.
func (d Document) Find(name string) (Person, bool) {
	for _, p := range d {
		if p.Name == name {
			return p, true
		}
	}
	return Person{}, false
}

// Result summarizes one import.
type Result struct {
	Document     Document
	LinesRead    int
	LinesSkipped int
	Levels       LevelReport
}

// Options configures an Engine.
type Options struct {
	MaxRounds   int   // relaxation and spouse sync bound, default 100
	MaxFileSize int64 // bytes, default 10MB
}

// Normalize fills zero values with defaults.
func (o *Options) Normalize() {
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
}

func serializationError(err error) error {
	return fmt.Errorf("%w: %v", ErrSerialization, err)
}
