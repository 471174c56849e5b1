package stdlib

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/easyprog/easyprog/pkg/easyprog/evaluator"
)

// sqlDrivers maps the names db_open accepts to database/sql driver names.
var sqlDrivers = map[string]string{
	"sqlite":     "sqlite",
	"sqlite3":    "sqlite",
	"postgres":   "postgres",
	"postgresql": "postgres",
	"mysql":      "mysql",
}

func supportedDrivers() string {
	names := make([]string, 0, len(sqlDrivers))
	for name := range sqlDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

type dbHandle struct {
	driver string
	db     *sql.DB
	open   bool
}

func (h *dbHandle) TypeName() string { return "database" }

func (h *dbHandle) Equal(other evaluator.HostValue) bool {
	o, ok := other.(*dbHandle)
	return ok && o == h
}

func (h *dbHandle) close() error {
	if !h.open {
		return nil
	}
	h.open = false
	return h.db.Close()
}

func dbBuiltins(res *resources) []builtin {
	return []builtin{
		{"db_open", func(c *call) (evaluator.Value, error) { return builtinDBOpen(c, res) }},
		{"db_exec", builtinDBExec},
		{"db_query", builtinDBQuery},
		{"db_scalar", builtinDBScalar},
		{"db_close", func(c *call) (evaluator.Value, error) { return builtinDBClose(c, res) }},
	}
}

// builtinDBOpen connects and pings: db_open(driver, dsn).
func builtinDBOpen(c *call, res *resources) (evaluator.Value, error) {
	if err := c.arity(2); err != nil {
		return nil, err
	}
	name, err := c.strArg(0)
	if err != nil {
		return nil, err
	}
	dsn, err := c.strArg(1)
	if err != nil {
		return nil, err
	}
	driver, ok := sqlDrivers[strings.ToLower(name)]
	if !ok {
		return nil, c.fail("DB-0001", map[string]any{"Driver": name, "Supported": supportedDrivers()})
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, c.failErr("DB-0002", err, nil)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, c.failErr("DB-0002", err, nil)
	}
	if driver == "sqlite" {
		// One connection keeps ":memory:" databases alive across statements.
		db.SetMaxOpenConns(1)
	}

	h := &dbHandle{driver: driver, db: db, open: true}
	res.dbs[h] = struct{}{}
	return &evaluator.Custom{ID: DatabaseID, Data: h}, nil
}

// dbCall validates (db, sql, params...) and returns the open handle, the
// statement and its parameters.
func (c *call) dbCall() (*dbHandle, string, []any, error) {
	if err := c.atLeast(2); err != nil {
		return nil, "", nil, err
	}
	h, err := c.dbArg(0)
	if err != nil {
		return nil, "", nil, err
	}
	query, err := c.strArg(1)
	if err != nil {
		return nil, "", nil, err
	}
	if !h.open {
		return nil, "", nil, c.fail("DB-0004", nil)
	}
	params := make([]any, 0, len(c.args)-2)
	for i := 2; i < len(c.args); i++ {
		switch v := c.args[i].(type) {
		case evaluator.Int:
			params = append(params, v.Value)
		case evaluator.Str:
			params = append(params, v.Value)
		case evaluator.Void:
			params = append(params, nil)
		default:
			return nil, "", nil, c.typeError(i, "int, str or void")
		}
	}
	return h, query, params, nil
}

func (c *call) dbArg(i int) (*dbHandle, error) {
	hv, err := c.handleArg(i, DatabaseID, "database")
	if err != nil {
		return nil, err
	}
	h, ok := hv.(*dbHandle)
	if !ok {
		return nil, c.fail("TYPE-0002", map[string]any{
			"Function": c.name, "Index": i + 1, "Expected": "database", "Got": hv.TypeName(),
		})
	}
	return h, nil
}

// builtinDBExec runs a statement and returns the number of affected rows.
func builtinDBExec(c *call) (evaluator.Value, error) {
	h, query, params, err := c.dbCall()
	if err != nil {
		return nil, err
	}
	result, err := h.db.Exec(query, params...)
	if err != nil {
		return nil, c.failErr("DB-0003", err, nil)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return integer(0), nil
	}
	return integer(n), nil
}

// builtinDBQuery returns every row as a line of tab-separated columns.
func builtinDBQuery(c *call) (evaluator.Value, error) {
	h, query, params, err := c.dbCall()
	if err != nil {
		return nil, err
	}
	rows, err := h.db.Query(query, params...)
	if err != nil {
		return nil, c.failErr("DB-0003", err, nil)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, c.failErr("DB-0003", err, nil)
	}
	var lines []string
	for rows.Next() {
		row, err := scanRow(rows, len(cols))
		if err != nil {
			return nil, c.failErr("DB-0003", err, nil)
		}
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = formatColumn(v)
		}
		lines = append(lines, strings.Join(fields, "\t"))
	}
	if err := rows.Err(); err != nil {
		return nil, c.failErr("DB-0003", err, nil)
	}
	return str(strings.Join(lines, "\n")), nil
}

// builtinDBScalar returns the first column of the first row. Integer columns
// become ints, NULL becomes void and everything else a string.
func builtinDBScalar(c *call) (evaluator.Value, error) {
	h, query, params, err := c.dbCall()
	if err != nil {
		return nil, err
	}
	var v any
	if err := h.db.QueryRow(query, params...).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, c.fail("DB-0005", nil)
		}
		return nil, c.failErr("DB-0003", err, nil)
	}
	switch x := v.(type) {
	case nil:
		return void, nil
	case int64:
		return integer(x), nil
	}
	return str(formatColumn(v)), nil
}

func builtinDBClose(c *call, res *resources) (evaluator.Value, error) {
	if err := c.arity(1); err != nil {
		return nil, err
	}
	h, err := c.dbArg(0)
	if err != nil {
		return nil, err
	}
	delete(res.dbs, h)
	if err := h.close(); err != nil {
		return nil, c.failErr("DB-0003", err, nil)
	}
	return void, nil
}

func scanRow(rows *sql.Rows, n int) ([]any, error) {
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

func formatColumn(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
