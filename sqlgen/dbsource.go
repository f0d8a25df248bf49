package sqlgen

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/vegasq/tabular/data"
	"github.com/vegasq/tabular/dataset"
)

// DBSource executes generated SQL through database/sql. The driver is
// the caller's choice; DBSource only needs a dialect matching it.
type DBSource struct {
	db      *sql.DB
	dialect Dialect
}

// NewDBSource wraps an open connection pool.
func NewDBSource(db *sql.DB, dialect Dialect) *DBSource {
	return &DBSource{db: db, dialect: dialect}
}

// Table returns a dataset reading the named table. Columns are probed
// on first use.
func (s *DBSource) Table(name string) *SQLDataset {
	return NewSQLDataset(s, name, nil)
}

func (s *DBSource) Dialect() Dialect { return s.dialect }

func (s *DBSource) Equivalent(other Source) bool {
	o, ok := other.(*DBSource)
	return ok && o.db == s.db
}

// Columns probes the statement's schema with a zero-row query.
func (s *DBSource) Columns(sqlText string, job *dataset.Job, callback func([]data.Column, error)) {
	if job == nil {
		job = dataset.NewJob()
	}
	job.Async(func() {
		probe := "SELECT * FROM (" + sqlText + ") AS P " + s.dialect.LimitSQL(0)
		rows, err := s.db.Query(probe)
		if err != nil {
			callback(nil, errors.Wrap(err, "probing result schema"))
			return
		}
		defer rows.Close()
		names, err := rows.Columns()
		if err != nil {
			callback(nil, errors.Wrap(err, "probing result schema"))
			return
		}
		cols := make([]data.Column, len(names))
		for i, n := range names {
			cols[i] = data.Column(n)
		}
		callback(cols, nil)
	})
}

func (s *DBSource) Stream(sqlText string, columns []data.Column) dataset.Stream {
	return &dbStream{source: s, sqlText: sqlText, columns: columns}
}

// dbStream cursors over a query result in BatchSize chunks. The query
// runs lazily on the first Fetch; Clone starts a fresh cursor that
// re-runs it.
type dbStream struct {
	source  *DBSource
	sqlText string
	columns []data.Column

	rows *sql.Rows
	done bool
}

func (st *dbStream) Columns(job *dataset.Job, callback func([]data.Column, error)) {
	if st.columns != nil {
		callback(st.columns, nil)
		return
	}
	st.source.Columns(st.sqlText, job, func(cols []data.Column, err error) {
		if err == nil {
			st.columns = cols
		}
		callback(cols, err)
	})
}

func (st *dbStream) Fetch(job *dataset.Job, sink dataset.Sink) {
	if st.done {
		sink(nil, false, nil)
		return
	}
	if st.rows == nil {
		rows, err := st.source.db.Query(st.sqlText)
		if err != nil {
			st.done = true
			sink(nil, false, errors.Wrapf(err, "executing %q", st.sqlText))
			return
		}
		st.rows = rows
		if st.columns == nil {
			names, cerr := rows.Columns()
			if cerr != nil {
				st.done = true
				sink(nil, false, errors.Wrap(cerr, "reading result schema"))
				return
			}
			st.columns = make([]data.Column, len(names))
			for i, n := range names {
				st.columns[i] = data.Column(n)
			}
		}
	}

	batch := make([]data.Tuple, 0, dataset.BatchSize)
	for len(batch) < dataset.BatchSize {
		if job != nil && job.Cancelled() {
			st.close()
			sink(nil, false, dataset.ErrCancelled)
			return
		}
		if !st.rows.Next() {
			err := st.rows.Err()
			st.close()
			if err != nil {
				sink(nil, false, errors.Wrap(err, "reading rows"))
				return
			}
			sink(batch, false, nil)
			return
		}
		t, err := scanTuple(st.rows, len(st.columns))
		if err != nil {
			st.close()
			sink(nil, false, err)
			return
		}
		batch = append(batch, t)
	}
	sink(batch, true, nil)
}

func (st *dbStream) close() {
	st.done = true
	if st.rows != nil {
		st.rows.Close()
		st.rows = nil
	}
}

func (st *dbStream) Clone() dataset.Stream {
	return &dbStream{source: st.source, sqlText: st.sqlText, columns: st.columns}
}

func scanTuple(rows *sql.Rows, width int) (data.Tuple, error) {
	raw := make([]any, width)
	ptrs := make([]any, width)
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, errors.Wrap(err, "scanning row")
	}
	t := make(data.Tuple, width)
	for i, v := range raw {
		t[i] = sqlValue(v)
	}
	return t, nil
}

// sqlValue maps a driver value to the engine's value model. NULL maps
// to Empty; anything unrecognized becomes Invalid rather than a guess.
func sqlValue(v any) data.Value {
	switch x := v.(type) {
	case nil:
		return data.Empty
	case int64:
		return data.Int(x)
	case float64:
		return data.Double(x)
	case bool:
		return data.Bool(x)
	case string:
		return data.String(x)
	case []byte:
		return data.String(string(x))
	case time.Time:
		return data.Date(x.Unix())
	}
	return data.Invalid
}
