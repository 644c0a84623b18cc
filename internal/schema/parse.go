package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-admin/console/internal/client"
)

// ParseField reads a compact field description of the form
//
//	name:type[:opt[,opt...]]
//
// where opt is one of primary, auto_id, dim=N, max_length=N or element=TYPE.
// For example "id:int64:primary,auto_id" or "vec:float_vector:dim=128".
func ParseField(def string) (client.Field, error) {
	parts := strings.SplitN(def, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return client.Field{}, fmt.Errorf("field %q: want name:type[:options]", def)
	}
	f := client.Field{Name: parts[0], Type: strings.ToLower(parts[1])}
	if len(parts) == 2 {
		return f, nil
	}

	for _, opt := range strings.Split(parts[2], ",") {
		opt = strings.TrimSpace(opt)
		key, val, _ := strings.Cut(opt, "=")
		switch key {
		case "":
		case "primary":
			f.IsPrimary = true
		case "auto_id":
			f.AutoID = true
		case "dim", "max_length":
			n, err := strconv.Atoi(val)
			if err != nil {
				return client.Field{}, fmt.Errorf("field %q: %s: %w", f.Name, key, err)
			}
			if key == "dim" {
				f.Dim = n
			} else {
				f.MaxLength = n
			}
		case "element":
			f.ElementType = strings.ToLower(val)
		default:
			return client.Field{}, fmt.Errorf("field %q: unknown option %q", f.Name, key)
		}
	}
	return f, nil
}

// FormatField is the inverse of ParseField.
func FormatField(f client.Field) string {
	var opts []string
	if f.IsPrimary {
		opts = append(opts, "primary")
	}
	if f.AutoID {
		opts = append(opts, "auto_id")
	}
	if f.Dim > 0 {
		opts = append(opts, "dim="+strconv.Itoa(f.Dim))
	}
	if f.MaxLength > 0 {
		opts = append(opts, "max_length="+strconv.Itoa(f.MaxLength))
	}
	if f.ElementType != "" {
		opts = append(opts, "element="+f.ElementType)
	}
	s := f.Name + ":" + f.Type
	if len(opts) > 0 {
		s += ":" + strings.Join(opts, ",")
	}
	return s
}

// ParseFields splits a whitespace-separated list of field descriptions.
func ParseFields(defs string) ([]client.Field, error) {
	var fields []client.Field
	for _, def := range strings.Fields(defs) {
		f, err := ParseField(def)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
