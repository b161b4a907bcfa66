package dbcontext

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestScanModel_MatchAndCoerce(t *testing.T) {
	type Row struct {
		ID      int64
		Name    string
		Ratio   float64
		Active  bool
		Email   *string
		Balance decimal.Decimal
		Seen    time.Time
	}
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d, _ := newTestDB(t, oneSet(
		[]string{"ID", "Name", "Ratio", "Active", "Email", "Balance", "Seen", "Extra"},
		[]driver.Value{int64(7), []byte("alice"), 1.5, true, "a@x", "12.34", when, "ignored"},
	))
	rows, err := d.q.QueryContext(context.Background(), "any")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	got, err := scanModel[Row](d, rows)
	if err != nil {
		t.Fatalf("scanModel: %v", err)
	}
	if got.ID != 7 || got.Name != "alice" || got.Ratio != 1.5 || !got.Active {
		t.Fatalf("row = %+v", got)
	}
	if got.Email == nil || *got.Email != "a@x" {
		t.Fatalf("email = %v", got.Email)
	}
	if !got.Balance.Equal(decimal.RequireFromString("12.34")) {
		t.Fatalf("balance = %v", got.Balance)
	}
	if !got.Seen.Equal(when) {
		t.Fatalf("seen = %v", got.Seen)
	}
}

func TestScanModel_NullCoercesToAbsent(t *testing.T) {
	type Row struct {
		Name  string
		Email *string
		Age   int
	}
	d, _ := newTestDB(t, oneSet(
		[]string{"Name", "Email", "Age"},
		[]driver.Value{nil, nil, nil},
	))
	rows, _ := d.q.QueryContext(context.Background(), "any")
	defer rows.Close()

	got, err := scanModel[Row](d, rows)
	if err != nil {
		t.Fatalf("scanModel: %v", err)
	}
	if got.Name != "" || got.Email != nil || got.Age != 0 {
		t.Fatalf("nulls not coerced: %+v", got)
	}
}

func TestScanModel_CaseSensitiveColumns(t *testing.T) {
	type Row struct{ Name string }
	d, _ := newTestDB(t, oneSet(
		[]string{"name"}, // wrong case: must not match
		[]driver.Value{"x"},
	))
	rows, _ := d.q.QueryContext(context.Background(), "any")
	defer rows.Close()

	got, err := scanModel[Row](d, rows)
	if err != nil {
		t.Fatalf("scanModel: %v", err)
	}
	if got.Name != "" {
		t.Fatalf("lower-case column matched exact field: %+v", got)
	}
}

func TestScanModel_EmptyResult(t *testing.T) {
	type Row struct{ ID int64 }
	d, _ := newTestDB(t, oneSet([]string{"ID"}))
	rows, _ := d.q.QueryContext(context.Background(), "any")
	defer rows.Close()

	_, err := scanModel[Row](d, rows)
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("err = %v, want ErrEmptyResult", err)
	}
}

func TestScanModel_MappingErrorPropagates(t *testing.T) {
	type Row struct{ When time.Time }
	d, _ := newTestDB(t, oneSet(
		[]string{"When"},
		[]driver.Value{int64(12)}, // integer into time.Time
	))
	rows, _ := d.q.QueryContext(context.Background(), "any")
	defer rows.Close()

	_, err := scanModel[Row](d, rows)
	var me *MappingError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want MappingError", err)
	}
	if me.Column != "When" {
		t.Fatalf("column = %q", me.Column)
	}
}

func TestScanModels_AllRows(t *testing.T) {
	type Row struct{ N int64 }
	d, _ := newTestDB(t, oneSet(
		[]string{"N"},
		[]driver.Value{int64(1)},
		[]driver.Value{int64(2)},
		[]driver.Value{int64(3)},
	))
	rows, _ := d.q.QueryContext(context.Background(), "any")
	defer rows.Close()

	got, err := scanModels[Row](d, rows)
	if err != nil {
		t.Fatalf("scanModels: %v", err)
	}
	if len(got) != 3 || got[0].N != 1 || got[2].N != 3 {
		t.Fatalf("rows = %+v", got)
	}
}

func TestReadTable_AllowList(t *testing.T) {
	d, _ := newTestDB(t, oneSet(
		[]string{"A", "B", "C"},
		[]driver.Value{int64(1), []byte("x"), int64(3)},
		[]driver.Value{int64(4), []byte("y"), int64(6)},
	))
	rows, _ := d.q.QueryContext(context.Background(), "any")
	defer rows.Close()

	tbl, err := readTable(rows, newNameSet([]string{"A", "C"}))
	if err != nil {
		t.Fatalf("readTable: %v", err)
	}
	if len(tbl.Columns) != 2 || tbl.Columns[0] != "A" || tbl.Columns[1] != "C" {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	for _, row := range tbl.Rows {
		if len(row) != len(tbl.Columns) {
			t.Fatalf("row width %d != column count %d", len(row), len(tbl.Columns))
		}
	}
	if tbl.Rows[0][0] != int64(1) || tbl.Rows[0][1] != int64(3) {
		t.Fatalf("row 0 = %v", tbl.Rows[0])
	}
}

func TestReadTable_BytesBecomeStrings(t *testing.T) {
	d, _ := newTestDB(t, oneSet(
		[]string{"Name"},
		[]driver.Value{[]byte("bob")},
	))
	rows, _ := d.q.QueryContext(context.Background(), "any")
	defer rows.Close()

	tbl, err := readTable(rows, nil)
	if err != nil {
		t.Fatalf("readTable: %v", err)
	}
	if tbl.Rows[0][0] != "bob" {
		t.Fatalf("cell = %#v, want string", tbl.Rows[0][0])
	}
}
