package dbcontext

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
)

// The test backend: an in-memory driver whose handler returns one or more
// result sets per query, with a log of every statement that reached it.

type resultSet struct {
	cols []string
	data [][]driver.Value
}

type call struct {
	query string
	args  []driver.NamedValue
}

type callLog struct {
	mu    sync.Mutex
	calls []call
}

func (l *callLog) add(query string, args []driver.NamedValue) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call{query: query, args: append([]driver.NamedValue(nil), args...)})
}

func (l *callLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func (l *callLog) last() call {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.calls) == 0 {
		return call{}
	}
	return l.calls[len(l.calls)-1]
}

type procHandler func(query string, args []driver.NamedValue) ([]resultSet, error)

type testConnector struct {
	h   procHandler
	log *callLog
}

func (c *testConnector) Connect(context.Context) (driver.Conn, error) {
	return &testConn{h: c.h, log: c.log}, nil
}

func (c *testConnector) Driver() driver.Driver { return testDriver{} }

type testDriver struct{}

func (testDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("testDriver.Open should not be called; use sql.OpenDB with connector")
}

type testConn struct {
	h   procHandler
	log *callLog
}

func (c *testConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (c *testConn) Close() error                        { return nil }
func (c *testConn) Begin() (driver.Tx, error)           { return nil, driver.ErrSkip }

func (c *testConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.log.add(query, args)
	sets, err := c.h(query, args)
	if err != nil {
		return nil, err
	}
	return &testRows{sets: sets}, nil
}

// testRows serves stacked result sets, the paging convention's shape.
type testRows struct {
	sets []resultSet
	cur  int
	i    int
}

func (r *testRows) Columns() []string {
	return append([]string(nil), r.sets[r.cur].cols...)
}

func (r *testRows) Close() error { return nil }

func (r *testRows) Next(dest []driver.Value) error {
	set := r.sets[r.cur]
	if r.i >= len(set.data) {
		return io.EOF
	}
	row := set.data[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	return nil
}

func (r *testRows) HasNextResultSet() bool { return r.cur+1 < len(r.sets) }

func (r *testRows) NextResultSet() error {
	if !r.HasNextResultSet() {
		return io.EOF
	}
	r.cur++
	r.i = 0
	return nil
}

// fakeSource is a canned MetadataSource.
type fakeSource map[string][]Parameter

func (s fakeSource) Parameters(_ context.Context, procedure string) ([]Parameter, error) {
	return s[procedure], nil
}

// newTestDB wires a DB over the in-memory driver with a silent sink.
func newTestDB(t *testing.T, h procHandler, opts ...Option) (*DB, *callLog) {
	t.Helper()
	log := &callLog{}
	sqldb := sql.OpenDB(&testConnector{h: h, log: log})
	t.Cleanup(func() { _ = sqldb.Close() })
	opts = append([]Option{WithErrorSink(NopSink{})}, opts...)
	return New(sqldb, sqlServerDialect{}, opts...), log
}

// oneSet is shorthand for a handler that always returns a single result set.
func oneSet(cols []string, data ...[]driver.Value) procHandler {
	return func(string, []driver.NamedValue) ([]resultSet, error) {
		return []resultSet{{cols: cols, data: data}}, nil
	}
}
