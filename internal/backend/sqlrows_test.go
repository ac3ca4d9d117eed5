package backend

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// fakeConnector answers every query with the same sheet_rows result set.
type fakeConnector struct {
	rows    [][]driver.Value
	queries atomic.Int32
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) { return &fakeConn{c: c}, nil }
func (c *fakeConnector) Driver() driver.Driver                        { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return nil, errors.New("open through the connector") }

type fakeConn struct{ c *fakeConnector }

func (*fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("prepare not supported") }
func (*fakeConn) Close() error                        { return nil }
func (*fakeConn) Begin() (driver.Tx, error)           { return nil, errors.New("transactions not supported") }

func (f *fakeConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	f.c.queries.Add(1)
	return &fakeRows{rows: f.c.rows}, nil
}

type fakeRows struct {
	rows [][]driver.Value
	next int
}

func (*fakeRows) Columns() []string { return []string{"id", "collection", "position", "cells"} }
func (*fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}

func newFakeDB(t *testing.T, rows ...[]driver.Value) (*bun.DB, *fakeConnector) {
	t.Helper()
	c := &fakeConnector{rows: rows}
	db := bun.NewDB(sql.OpenDB(c), pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db, c
}

func TestSQLReadAllRowsIgnoresLaggingReader(t *testing.T) {
	writer, writes := newFakeDB(t,
		[]driver.Value{int64(1), "ventas", int64(0), `["id","fecha"]`},
		[]driver.Value{int64(2), "ventas", int64(1), `["1","2024-05-01"]`},
	)
	// The replica has not caught up with either row.
	reader, reads := newFakeDB(t)

	s, err := NewSQL(writer, reader)
	require.NoError(t, err)

	rows, err := s.ReadAllRows(context.Background(), "ventas")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "fecha"}, {"1", "2024-05-01"}}, rows)
	assert.Equal(t, int32(1), writes.queries.Load())
	assert.Zero(t, reads.queries.Load())
}

func TestNewSQLRequiresWriter(t *testing.T) {
	_, err := NewSQL(nil, nil)
	assert.Error(t, err)
}
