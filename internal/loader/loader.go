// Package loader imports the PDGA approved-disc CSV sheet into the catalog.
package loader

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/discflight/discimg/internal/catalog"
)

// Report summarizes one import.
type Report struct {
	Inserted int
	Skipped  int
	Total    int
}

const tableDDL = `
CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	manufacturer TEXT,
	model TEXT,
	max_weight REAL,
	diameter REAL,
	height REAL,
	rim_depth REAL,
	inside_rim_diameter REAL,
	rim_thickness REAL,
	rim_depth_diameter_ratio REAL,
	rim_configuration REAL,
	flexibility REAL,
	class TEXT,
	max_weight_vint REAL,
	last_year_production INTEGER,
	certification_number TEXT,
	approved_date TEXT,
	bh1 TEXT,
	bh2 TEXT,
	bh3 TEXT,
	fh1 TEXT,
	fh2 TEXT,
	fh3 TEXT,
	weblink TEXT,
	UNIQUE(manufacturer, model)
)`

const insertSQL = `
INSERT OR IGNORE INTO %s (
	manufacturer, model, max_weight, diameter, height, rim_depth,
	inside_rim_diameter, rim_thickness, rim_depth_diameter_ratio,
	rim_configuration, flexibility, class, max_weight_vint,
	last_year_production, certification_number, approved_date,
	bh1, bh2, bh3, fh1, fh2, fh3, weblink
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// EnsureTable creates the disc table if it does not exist.
func EnsureTable(ctx context.Context, db *sql.DB, table string) error {
	if err := catalog.ValidateTable(table); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(tableDDL, table)); err != nil {
		return fmt.Errorf("create disc table: %w", err)
	}
	return nil
}

// ImportCSV reads the sheet at path and inserts one row per disc.
func ImportCSV(ctx context.Context, db *sql.DB, table, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open csv: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Import(ctx, db, table, f)
}

// Import inserts one disc per CSV row, skipping duplicates on
// (manufacturer, model). Blank or malformed numeric fields become NULL.
func Import(ctx context.Context, db *sql.DB, table string, r io.Reader) (Report, error) {
	if err := catalog.ValidateTable(table); err != nil {
		return Report{}, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Report{}, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	stmt, err := db.PrepareContext(ctx, fmt.Sprintf(insertSQL, table))
	if err != nil {
		return Report{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	var report Report
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read csv row: %w", err)
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		res, err := stmt.ExecContext(ctx,
			field("Manufacturer / Distributor"),
			field("Disc Model"),
			parseFloat(field("Max Weight (gr)")),
			parseFloat(field("Diameter (cm)")),
			parseFloat(field("Height (cm)")),
			parseFloat(field("Rim Depth (cm)")),
			parseFloat(field("Inside Rim Diameter (cm)")),
			parseFloat(field("Rim Thickness (cm)")),
			parseFloat(field("Rim Depth / Diameter Ratio (%)")),
			parseFloat(field("Rim Configuration")),
			parseFloat(field("Flexibility (kg)")),
			nullString(field("Class")),
			parseFloat(field("Max Weight Vint (gr)")),
			parseInt(field("Last Year Production")),
			nullString(field("Certification Number")),
			nullString(field("Approved Date")),
			// Flight-path slots (bh1-3, fh1-3) are not in the PDGA sheet;
			// they start NULL and are filled by downstream tooling.
			nil, nil, nil,
			nil, nil, nil,
			nullString(field("Weblink")),
		)
		if err != nil {
			return report, fmt.Errorf("insert disc %q: %w", field("Disc Model"), err)
		}

		report.Total++
		affected, err := res.RowsAffected()
		if err != nil {
			return report, fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			report.Inserted++
		} else {
			report.Skipped++
		}
	}
	return report, nil
}

func parseFloat(s string) any {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return v
}

func parseInt(s string) any {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
