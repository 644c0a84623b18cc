package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milvus-admin/console/internal/client"
)

func TestValidateCreateDefaults(t *testing.T) {
	req := client.CreateRequest{Name: "docs", Fields: DefaultFields()}
	assert.NoError(t, ValidateCreate(req))
}

func TestValidateCreateRejects(t *testing.T) {
	pk := client.Field{Name: "id", Type: TypeInt64, IsPrimary: true}
	tests := []struct {
		name   string
		req    client.CreateRequest
		target error
	}{
		{"no name", client.CreateRequest{Fields: []client.Field{pk}}, ErrNoName},
		{"no fields", client.CreateRequest{Name: "c"}, ErrNoFields},
		{"no primary", client.CreateRequest{Name: "c", Fields: []client.Field{
			{Name: "v", Type: TypeFloatVector, Dim: 8},
		}}, ErrNoPrimary},
		{"two primaries", client.CreateRequest{Name: "c", Fields: []client.Field{
			pk, {Name: "k", Type: TypeVarchar, MaxLength: 8, IsPrimary: true},
		}}, ErrManyPrimaries},
		{"float primary", client.CreateRequest{Name: "c", Fields: []client.Field{
			{Name: "f", Type: TypeFloat, IsPrimary: true},
		}}, ErrBadPrimaryType},
		{"vector without dim", client.CreateRequest{Name: "c", Fields: []client.Field{
			pk, {Name: "v", Type: TypeBinaryVector},
		}}, ErrMissingDim},
		{"varchar without length", client.CreateRequest{Name: "c", Fields: []client.Field{
			pk, {Name: "s", Type: TypeVarchar},
		}}, ErrMissingMaxLength},
		{"array without element", client.CreateRequest{Name: "c", Fields: []client.Field{
			pk, {Name: "a", Type: TypeArray},
		}}, ErrMissingElement},
		{"unknown type", client.CreateRequest{Name: "c", Fields: []client.Field{
			pk, {Name: "x", Type: "int128"},
		}}, ErrUnknownType},
		{"duplicate", client.CreateRequest{Name: "c", Fields: []client.Field{
			pk, {Name: "id", Type: TypeBool},
		}}, ErrDuplicateField},
		{"blank field name", client.CreateRequest{Name: "c", Fields: []client.Field{
			pk, {Type: TypeBool},
		}}, ErrFieldName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateCreate(tt.req), tt.target)
		})
	}
}

func TestFieldErrorNamesField(t *testing.T) {
	err := ValidateCreate(client.CreateRequest{Name: "c", Fields: []client.Field{
		{Name: "id", Type: TypeInt64, IsPrimary: true},
		{Name: "vec", Type: TypeFloatVector},
	}})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Index)
	assert.Contains(t, err.Error(), `"vec"`)
}

func TestSelectionPrimaryLocked(t *testing.T) {
	s := NewSelection([]client.Field{
		{Name: "id", Type: TypeInt64, IsPrimary: true},
		{Name: "title", Type: TypeVarchar},
		{Name: "vec", Type: TypeFloatVector},
	})
	assert.Nil(t, s.Request(), "all selected loads every field")

	s.Toggle("id")
	assert.True(t, s.Selected("id"))

	s.Toggle("title")
	assert.Equal(t, []string{"id", "vec"}, s.Request())

	s.ToggleAll()
	assert.True(t, s.AllSelected())
	assert.Nil(t, s.Request())

	s.ToggleAll()
	assert.Equal(t, []string{"id"}, s.Request())
	assert.True(t, s.Locked("id"))
	assert.False(t, s.Locked("vec"))

	s.Toggle("missing")
	assert.False(t, s.Selected("missing"))
}

func TestParseField(t *testing.T) {
	f, err := ParseField("id:int64:primary,auto_id")
	require.NoError(t, err)
	assert.Equal(t, client.Field{Name: "id", Type: TypeInt64, IsPrimary: true, AutoID: true}, f)

	f, err = ParseField("vec:FLOAT_VECTOR:dim=128")
	require.NoError(t, err)
	assert.Equal(t, TypeFloatVector, f.Type)
	assert.Equal(t, 128, f.Dim)

	f, err = ParseField("tags:array:element=varchar,max_length=32")
	require.NoError(t, err)
	assert.Equal(t, TypeVarchar, f.ElementType)
	assert.Equal(t, 32, f.MaxLength)

	f, err = ParseField("flag:bool")
	require.NoError(t, err)
	assert.Equal(t, TypeBool, f.Type)

	_, err = ParseField("broken")
	assert.Error(t, err)
	_, err = ParseField("v:float_vector:dim=x")
	assert.Error(t, err)
	_, err = ParseField("v:float_vector:shiny")
	assert.Error(t, err)
}

func TestFormatFieldRoundTrip(t *testing.T) {
	for _, def := range []string{
		"id:int64:primary,auto_id",
		"embedding:float_vector:dim=768",
		"tags:array:max_length=32,element=varchar",
		"flag:bool",
	} {
		f, err := ParseField(def)
		require.NoError(t, err)
		assert.Equal(t, def, FormatField(f))
	}
}

func TestParseFieldsDefaults(t *testing.T) {
	var defs []string
	for _, f := range DefaultFields() {
		defs = append(defs, FormatField(f))
	}
	fields, err := ParseFields(strings.Join(defs, "  "))
	require.NoError(t, err)
	assert.Equal(t, DefaultFields(), fields)

	_, err = ParseFields("id:int64 broken")
	assert.Error(t, err)
}
