package datastore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteDatastore struct {
	db     *sql.DB
	config *Config
}

func NewSQLiteDatastore(config *Config) (*SQLiteDatastore, error) {
	db, err := sql.Open("sqlite3", config.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// every connection to :memory: is a fresh database
	if strings.Contains(config.DBName, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	// Create table if it doesn't exist.
	columnDefs := make([]string, 0, len(config.ColumnConfig))
	for name, typ := range config.ColumnConfig {
		columnDefs = append(columnDefs, fmt.Sprintf("%s %s", name, typ))
	}
	query := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s)",
		config.TableName,
		strings.Join(columnDefs, ", "),
	)
	if _, err = db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table %s: %v", config.TableName, err)
	}
	return &SQLiteDatastore{
		db:     db,
		config: config,
	}, nil
}

func (ds *SQLiteDatastore) Close() error {
	return ds.db.Close()
}

// scanTarget typed holder for a column, "TEXT PRIMARY KEY NOT NULL" => text
func (ds *SQLiteDatastore) scanTarget(column string) (interface{}, error) {
	fields := strings.Fields(ds.config.ColumnConfig[column])
	if len(fields) == 0 {
		return nil, fmt.Errorf("unsupported column: %s", column)
	}
	switch strings.ToLower(fields[0]) {
	case "text":
		return new(sql.NullString), nil
	case "int", "integer":
		// For simplicity, we use int64 for all integers.
		return new(sql.NullInt64), nil
	case "float", "real":
		return new(sql.NullFloat64), nil
	default:
		return nil, fmt.Errorf("unsupported column type: %s", ds.config.ColumnConfig[column])
	}
}

// scanValue NULL => nil, otherwise the plain go value
func scanValue(v interface{}) interface{} {
	switch n := v.(type) {
	case *sql.NullString:
		if n.Valid {
			return n.String
		}
	case *sql.NullInt64:
		if n.Valid {
			return n.Int64
		}
	case *sql.NullFloat64:
		if n.Valid {
			return n.Float64
		}
	}
	return nil
}

func (ds *SQLiteDatastore) Get(key string, columns []string) (map[string]interface{}, error) {
	row := ds.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
			strings.Join(columns, ", "), ds.config.TableName, ds.config.PrimaryKeyColumnName),
		key,
	)

	// Prepare a slice to hold the values.
	values := make([]interface{}, len(columns))
	for i, column := range columns {
		value, err := ds.scanTarget(column)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}

	// Scan the result into the values slice.
	err := row.Scan(values...)
	if err != nil {
		if err == sql.ErrNoRows {
			// There is no row with the given key.
			return nil, nil
		}
		return nil, err
	}

	result := make(map[string]interface{})
	for i, column := range columns {
		if v := scanValue(values[i]); v != nil {
			result[column] = v
		}
	}
	return result, nil
}

func (ds *SQLiteDatastore) Put(key string, values map[string]interface{}) error {
	columns := []string{ds.config.PrimaryKeyColumnName}
	placeholders := []string{"?"}
	args := []interface{}{key}
	for column, value := range values {
		if column == ds.config.PrimaryKeyColumnName {
			continue
		}
		columns = append(columns, column)
		placeholders = append(placeholders, "?")
		args = append(args, value)
	}
	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		ds.config.TableName,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
	_, err := ds.db.Exec(query, args...)
	return err
}

func (ds *SQLiteDatastore) Update(key string, values map[string]interface{}) error {
	if len(values) == 0 {
		return nil
	}
	sets := make([]string, 0, len(values))
	args := make([]interface{}, 0, len(values)+1)
	for column, value := range values {
		sets = append(sets, fmt.Sprintf("%s = ?", column))
		args = append(args, value)
	}
	args = append(args, key)
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		ds.config.TableName,
		strings.Join(sets, ", "),
		ds.config.PrimaryKeyColumnName,
	)
	res, err := ds.db.Exec(query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (ds *SQLiteDatastore) Delete(key string) error {
	_, err := ds.db.Exec(
		fmt.Sprintf(
			"DELETE FROM %s WHERE %s = ?", ds.config.TableName, ds.config.PrimaryKeyColumnName),
		key)
	return err
}

func (ds *SQLiteDatastore) ListAll(columns []string) (map[string]map[string]interface{}, error) {
	selected := append([]string{ds.config.PrimaryKeyColumnName}, columns...)
	rows, err := ds.db.Query(fmt.Sprintf("SELECT %s FROM %s", strings.Join(selected, ", "), ds.config.TableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make(map[string]map[string]interface{})
	for rows.Next() {
		var key string
		values := make([]interface{}, len(selected))
		values[0] = &key
		for i, column := range columns {
			value, err := ds.scanTarget(column)
			if err != nil {
				return nil, err
			}
			values[i+1] = value
		}
		if err := rows.Scan(values...); err != nil {
			return nil, err
		}
		m := make(map[string]interface{})
		for i, column := range columns {
			if v := scanValue(values[i+1]); v != nil {
				m[column] = v
			}
		}
		results[key] = m
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
