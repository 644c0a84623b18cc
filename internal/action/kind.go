// Package action dispatches collection lifecycle actions to the admin API.
package action

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is one of the fixed set of lifecycle actions.
type Kind int

const (
	Load Kind = iota + 1
	Release
	Drop
	Rename
	Create
	Compact
	DropIndex
)

// ErrUnknownKind is returned by ParseKind for names outside the fixed set.
var ErrUnknownKind = errors.New("unknown action")

// route is the single endpoint a kind maps to.
type route struct {
	name   string
	method string
	path   string
	// query sends the target as ?name= instead of in a JSON body.
	query bool
}

var routes = map[Kind]route{
	Load:      {name: "load", method: http.MethodPost, path: "/api/milvus/collections/load"},
	Release:   {name: "release", method: http.MethodPost, path: "/api/milvus/collections/release", query: true},
	Drop:      {name: "drop", method: http.MethodDelete, path: "/api/milvus/collections/drop", query: true},
	Compact:   {name: "compact", method: http.MethodPost, path: "/api/milvus/collections/compact", query: true},
	Rename:    {name: "rename", method: http.MethodPost, path: "/api/milvus/collection/rename"},
	Create:    {name: "create", method: http.MethodPost, path: "/api/milvus/collection/create"},
	DropIndex: {name: "drop-index", method: http.MethodPost, path: "/api/milvus/index/drop"},
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{Load, Release, Drop, Rename, Create, Compact, DropIndex}
}

// ParseKind maps an action name such as "drop-index" to its Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "_", "-")
	for _, k := range Kinds() {
		if routes[k].name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	if r, ok := routes[k]; ok {
		return r.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	_, ok := routes[k]
	return ok
}

// Destructive reports whether the action removes data and must be confirmed
// by the caller before dispatch.
func (k Kind) Destructive() bool {
	return k == Drop || k == DropIndex
}

// Method returns the HTTP method used for k.
func (k Kind) Method() string { return routes[k].method }

// Path returns the admin API path used for k.
func (k Kind) Path() string { return routes[k].path }
