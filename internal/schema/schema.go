// Package schema holds the field-type rules used when creating collections
// and when choosing which fields to load into memory.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/milvus-admin/console/internal/client"
)

// Field types accepted by the admin API.
const (
	TypeInt64        = "int64"
	TypeFloat        = "float"
	TypeDouble       = "double"
	TypeBool         = "bool"
	TypeVarchar      = "varchar"
	TypeFloatVector  = "float_vector"
	TypeBinaryVector = "binary_vector"
	TypeArray        = "array"
	TypeJSON         = "json"
)

// Types lists every field type in display order.
var Types = []string{
	TypeInt64, TypeFloat, TypeDouble, TypeBool, TypeVarchar,
	TypeFloatVector, TypeBinaryVector, TypeArray, TypeJSON,
}

// ElementTypes lists the scalar types an array field may hold.
var ElementTypes = []string{TypeInt64, TypeFloat, TypeDouble, TypeBool, TypeVarchar}

const DefaultDim = 768

var (
	ErrNoName           = errors.New("collection name is required")
	ErrNoPrimary        = errors.New("one field must be the primary key")
	ErrManyPrimaries    = errors.New("only one field can be the primary key")
	ErrBadPrimaryType   = errors.New("primary key must be int64 or varchar")
	ErrNoFields         = errors.New("at least one field is required")
	ErrDuplicateField   = errors.New("duplicate field name")
	ErrFieldName        = errors.New("field name is required")
	ErrUnknownType      = errors.New("unknown field type")
	ErrMissingDim       = errors.New("vector field needs a positive dim")
	ErrMissingMaxLength = errors.New("varchar field needs a positive max_length")
	ErrMissingElement   = errors.New("array field needs an element_type")
)

// IsVector reports whether t is a vector field type.
func IsVector(t string) bool {
	return t == TypeFloatVector || t == TypeBinaryVector
}

// KnownType reports whether t is one of Types.
func KnownType(t string) bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// DefaultFields is the starting schema for a new collection.
func DefaultFields() []client.Field {
	return []client.Field{
		{Name: "id", Type: TypeInt64, IsPrimary: true},
		{Name: "embedding", Type: TypeFloatVector, Dim: DefaultDim},
	}
}

// FieldError ties a validation failure to the field that caused it.
type FieldError struct {
	Index int
	Name  string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("field %d: %v", e.Index+1, e.Err)
	}
	return fmt.Sprintf("field %q: %v", e.Name, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ValidateCreate checks a create-collection request before it is sent.
// It returns the first problem found.
func ValidateCreate(req client.CreateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrNoName
	}
	if len(req.Fields) == 0 {
		return ErrNoFields
	}

	seen := make(map[string]bool, len(req.Fields))
	primaries := 0
	for i, f := range req.Fields {
		if err := validateField(f); err != nil {
			return &FieldError{Index: i, Name: f.Name, Err: err}
		}
		if seen[f.Name] {
			return &FieldError{Index: i, Name: f.Name, Err: ErrDuplicateField}
		}
		seen[f.Name] = true
		if f.IsPrimary {
			primaries++
			if f.Type != TypeInt64 && f.Type != TypeVarchar {
				return &FieldError{Index: i, Name: f.Name, Err: ErrBadPrimaryType}
			}
		}
	}
	switch {
	case primaries == 0:
		return ErrNoPrimary
	case primaries > 1:
		return ErrManyPrimaries
	}
	return nil
}

func validateField(f client.Field) error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrFieldName
	}
	if !KnownType(f.Type) {
		return fmt.Errorf("%w %q", ErrUnknownType, f.Type)
	}
	switch {
	case IsVector(f.Type) && f.Dim <= 0:
		return ErrMissingDim
	case f.Type == TypeVarchar && f.MaxLength <= 0:
		return ErrMissingMaxLength
	case f.Type == TypeArray && f.ElementType == "":
		return ErrMissingElement
	}
	return nil
}
