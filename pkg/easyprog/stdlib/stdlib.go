// Package stdlib is the easy_prog standard library: the native functions and
// constants a fresh interpreter starts with.
//
// Functions are registered in groups so hosts can leave some out:
//
//	io      print printerr flush_stdout input
//	file    fopen fread fwrite fclose pdf_text
//	string  parse_int str concat lf cr upper lower format_int markdown
//	core    declfunc set null if if_else add subt mult idiv and or eq neq exit
//	debug   inspect_scope
//	time    now parse_time format_time
//	db      db_open db_exec db_query db_scalar db_close
//	crypto  hash_password check_password
//
// Files and database connections opened by a program belong to the scope the
// library was registered into and are released when that scope is closed.
package stdlib

import (
	"fmt"
	"strings"

	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

// Group names a set of related functions.
type Group string

const (
	GroupIO     Group = "io"
	GroupFile   Group = "file"
	GroupString Group = "string"
	GroupCore   Group = "core"
	GroupDebug  Group = "debug"
	GroupTime   Group = "time"
	GroupDB     Group = "db"
	GroupCrypto Group = "crypto"
)

// Groups lists every group in registration order.
var Groups = []Group{GroupIO, GroupFile, GroupString, GroupCore, GroupDebug, GroupTime, GroupDB, GroupCrypto}

type builtin struct {
	name string
	fn   builtinFunc
}

// builtins returns the functions of a group. Groups holding host resources
// share res so one cleanup hook can release everything.
func builtins(g Group, res *resources) []builtin {
	switch g {
	case GroupIO:
		return ioBuiltins()
	case GroupFile:
		return fileBuiltins(res)
	case GroupString:
		return stringBuiltins()
	case GroupCore:
		return coreBuiltins()
	case GroupDebug:
		return debugBuiltins()
	case GroupTime:
		return timeBuiltins()
	case GroupDB:
		return dbBuiltins(res)
	case GroupCrypto:
		return cryptoBuiltins()
	}
	return nil
}

// IsGroup reports whether name is a known group.
func IsGroup(name string) bool {
	for _, g := range Groups {
		if string(g) == name {
			return true
		}
	}
	return false
}

// Register binds every group except the disabled ones into scope. Unknown
// group names are an error and nothing is registered.
func Register(scope *evaluator.Scope, disabled ...string) error {
	skip := make(map[Group]bool, len(disabled))
	var unknown []string
	for _, name := range disabled {
		if !IsGroup(name) {
			unknown = append(unknown, name)
			continue
		}
		skip[Group(name)] = true
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown stdlib group(s): %s", strings.Join(unknown, ", "))
	}

	res := newResources()
	for _, g := range Groups {
		if skip[g] {
			continue
		}
		for _, b := range builtins(g, res) {
			scope.RegisterNative(b.name, wrap(b.name, b.fn))
		}
		if g == GroupCore {
			scope.SetVariable("true", integer(1))
			scope.SetVariable("false", integer(0))
		}
	}
	scope.AddCleanupHook(res.release)
	return nil
}

// NewScope returns a root scope with the whole library registered.
func NewScope() *evaluator.Scope {
	scope := evaluator.NewScope()
	if err := Register(scope); err != nil {
		panic(err)
	}
	return scope
}

// resources tracks the host handles opened through one registration that
// are still open. Closed handles are forgotten.
type resources struct {
	files map[*fileHandle]struct{}
	dbs   map[*dbHandle]struct{}
}

func newResources() *resources {
	return &resources{
		files: make(map[*fileHandle]struct{}),
		dbs:   make(map[*dbHandle]struct{}),
	}
}

func (r *resources) release(*evaluator.Scope) {
	for f := range r.files {
		f.close()
	}
	for d := range r.dbs {
		d.close()
	}
	clear(r.files)
	clear(r.dbs)
}
