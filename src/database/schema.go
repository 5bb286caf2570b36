package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/username/weeklygiving/src/logger"
	"github.com/username/weeklygiving/src/models"
)

const (
	metaCheckColumns   = "check_columns"
	metaSpecialColumns = "special_columns"
)

// loadColumnCounts reads the column-count markers. Files created before the markers
// existed are adopted once by counting their columns.
func loadColumnCounts(db *sql.DB) (specials, checks int, err error) {
	specials, errS := readMarker(db, metaSpecialColumns)
	checks, errC := readMarker(db, metaCheckColumns)
	if errS == nil && errC == nil {
		return specials, checks, nil
	}
	if !errors.Is(errS, sql.ErrNoRows) && errS != nil {
		return 0, 0, errS
	}
	if !errors.Is(errC, sql.ErrNoRows) && errC != nil {
		return 0, 0, errC
	}

	specials, checks, err = countColumns(db)
	if err != nil {
		return 0, 0, err
	}
	logger.L.Info("Seeding column markers from existing table", "specials", specials, "checks", checks)
	if err := writeMarker(db, metaSpecialColumns, specials); err != nil {
		return 0, 0, err
	}
	if err := writeMarker(db, metaCheckColumns, checks); err != nil {
		return 0, 0, err
	}
	return specials, checks, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func readMarker(db *sql.DB, key string) (int, error) {
	var value string
	if err := db.QueryRow("SELECT value FROM schema_meta WHERE key = ?", key).Scan(&value); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("corrupt schema marker %s=%q", key, value)
	}
	return n, nil
}

func writeMarker(db execer, key string, n int) error {
	_, err := db.Exec(`INSERT INTO schema_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, strconv.Itoa(n))
	return err
}

// countColumns finds contiguous spec1..specN and checks_0..checks_{M-1} columns.
func countColumns(db *sql.DB) (specials, checks int, err error) {
	rows, err := db.Query("PRAGMA table_info(" + tableName + ")")
	if err != nil {
		return 0, 0, fmt.Errorf("error querying table schema for %s: %w", tableName, err)
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk, notnullVal int
		var name, dataType string
		var dfltValue any
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			return 0, 0, fmt.Errorf("error scanning column info: %w", err)
		}
		columnExists[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("error iterating over column info: %w", err)
	}

	for columnExists[models.SpecialColumn(specials)] {
		specials++
	}
	for columnExists[models.CheckColumn(checks)] {
		checks++
	}
	return specials, checks, nil
}

// addColumn adds one text column and records the new count in the same transaction.
func addColumn(db *sql.DB, column, defaultValue, markerKey string, newCount int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN "%s" TEXT DEFAULT '%s'`, tableName, column, defaultValue)
	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("error adding column %s: %w", column, err)
	}
	if err := writeMarker(tx, markerKey, newCount); err != nil {
		return fmt.Errorf("error updating %s marker: %w", markerKey, err)
	}
	return tx.Commit()
}

// dropColumn drops one column and records the new count in the same transaction.
func dropColumn(db *sql.DB, column, markerKey string, newCount int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s DROP COLUMN "%s"`, tableName, column)); err != nil {
		return fmt.Errorf("error dropping column %s: %w", column, err)
	}
	if err := writeMarker(tx, markerKey, newCount); err != nil {
		return fmt.Errorf("error updating %s marker: %w", markerKey, err)
	}
	return tx.Commit()
}
