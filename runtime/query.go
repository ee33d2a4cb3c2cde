package runtime

import "database/sql"

// Query is a source backed by a database query. Each row becomes one
// element: a single selected column yields the column value itself, several
// columns yield a []any tuple suitable for destructuring. Every Open runs
// the query again, so the source is restartable as long as the database is.
func Query(db *sql.DB, query string, args ...any) Source {
	return SourceFunc(func(*Env) (Seq, error) {
		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			return nil, err
		}
		width := len(cols)
		done := false
		return SeqFunc(func() (any, bool, error) {
			if done {
				return nil, false, nil
			}
			if !rows.Next() {
				done = true
				err := rows.Err()
				rows.Close()
				return nil, false, err
			}
			vals := make([]any, width)
			ptrs := make([]any, width)
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				done = true
				rows.Close()
				return nil, false, err
			}
			if width == 1 {
				return vals[0], true, nil
			}
			return vals, true, nil
		}), nil
	})
}
