package repository

import (
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrorKind clasifica los errores del almacén
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindDuplicate
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not_found"
	default:
		return "other"
	}
}

// StoreError envuelve un error nativo de MongoDB con la operación que lo produjo
type StoreError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// DuplicateKeyError indica que un índice único rechazó la escritura
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

var (
	dupKeyRegex   = regexp.MustCompile(`dup key: \{ ?"?([A-Za-z0-9_.]+)"?\s*:`)
	dupIndexRegex = regexp.MustCompile(`index: ([A-Za-z0-9_.]+?)_-?1\b`)
)

// translateError es el único punto que inspecciona los errores del driver
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return &StoreError{Op: op, Kind: KindNotFound, Err: err}
	}

	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{
			Field: duplicateField(err),
			Err:   &StoreError{Op: op, Kind: KindDuplicate, Err: err},
		}
	}

	return &StoreError{Op: op, Kind: KindOther, Err: err}
}

// duplicateField obtiene el campo en conflicto del documento keyValue que
// devuelve el servidor; si no viene, lo extrae del mensaje E11000
func duplicateField(err error) string {
	for _, raw := range rawErrorDocs(err) {
		if field := keyValueField(raw); field != "" {
			return field
		}
	}

	msg := err.Error()
	if m := dupKeyRegex.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	if m := dupIndexRegex.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return "key"
}

func rawErrorDocs(err error) []bson.Raw {
	var docs []bson.Raw

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			docs = append(docs, e.Raw)
		}
		docs = append(docs, we.Raw)
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			docs = append(docs, e.Raw)
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		docs = append(docs, ce.Raw)
	}

	return docs
}

func keyValueField(raw bson.Raw) string {
	if len(raw) == 0 {
		return ""
	}
	val, err := raw.LookupErr("keyValue")
	if err != nil {
		return ""
	}
	doc, ok := val.DocumentOK()
	if !ok {
		return ""
	}
	elems, err := doc.Elements()
	if err != nil || len(elems) == 0 {
		return ""
	}
	return elems[0].Key()
}

func isNotFound(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr) && serr.Kind == KindNotFound
}
