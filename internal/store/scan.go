package store

import (
	"database/sql"

	"github.com/conduit-lang/metarest/internal/metamodel"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans one row with a known column order into a map keyed by column
func scanRecord(row rowScanner, columns []string) (map[string]interface{}, error) {
	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := row.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	record := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		record[col] = normalize(values[i])
	}
	return record, nil
}

// scanInstances scans every row into instances of t
func scanInstances(rows *sql.Rows, t *metamodel.EntityType, cols []column) ([]*metamodel.Instance, error) {
	names := columnNames(cols)
	results := []*metamodel.Instance{}
	for rows.Next() {
		record, err := scanRecord(rows, names)
		if err != nil {
			return nil, err
		}
		results = append(results, toInstance(t, cols, record))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// toInstance rekeys a column record by attribute name
func toInstance(t *metamodel.EntityType, cols []column, record map[string]interface{}) *metamodel.Instance {
	inst := &metamodel.Instance{Type: t, Values: make(map[string]any, len(cols))}
	for _, c := range cols {
		inst.Values[c.attr.Name] = record[c.name]
	}
	if t.ID != nil {
		inst.ID = inst.Values[t.ID.Name]
	}
	return inst
}

// normalize converts driver byte slices to strings
func normalize(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
