package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowStub implements pgx.Row
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// rowOf returns a row that assigns vals to the scan targets in order.
func rowOf(vals ...any) rowStub {
	return rowStub{scan: func(dest ...any) error { return assign(dest, vals) }}
}

func errRow(err error) rowStub {
	return rowStub{scan: func(_ ...any) error { return err }}
}

func assign(dest, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d targets for %d values", len(dest), len(vals))
	}
	for i, v := range vals {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

// rowsStub implements pgx.Rows over a fixed set of rows.
type rowsStub struct {
	rows [][]any
	i    int
}

func (r *rowsStub) Close()                                       {}
func (r *rowsStub) Err() error                                   { return nil }
func (r *rowsStub) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *rowsStub) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *rowsStub) Values() ([]any, error)                       { return r.rows[r.i-1], nil }
func (r *rowsStub) RawValues() [][]byte                          { return nil }
func (r *rowsStub) Conn() *pgx.Conn                              { return nil }
func (r *rowsStub) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}
func (r *rowsStub) Scan(dest ...any) error { return assign(dest, r.rows[r.i-1]) }

type call struct {
	sql  string
	args []any
}

// poolStub implements postgres.PgxPool for tests. QueryRow serves rows in
// order; Exec reports the configured affected-row count.
type poolStub struct {
	execErr  error
	affected int64
	row      rowStub
	rowQueue []rowStub
	rows     [][]any
	queryErr error

	calls []call
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.calls = append(p.calls, call{sql: sql, args: args})
	if p.execErr != nil {
		return pgconn.CommandTag{}, p.execErr
	}
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", p.affected)), nil
}

func (p *poolStub) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	p.calls = append(p.calls, call{sql: sql, args: args})
	if len(p.rowQueue) > 0 {
		r := p.rowQueue[0]
		p.rowQueue = p.rowQueue[1:]
		return r
	}
	if p.row.scan == nil {
		return errRow(errors.New("no row configured"))
	}
	return p.row
}

func (p *poolStub) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.calls = append(p.calls, call{sql: sql, args: args})
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return &rowsStub{rows: p.rows}, nil
}
