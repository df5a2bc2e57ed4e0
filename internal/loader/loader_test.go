package loader_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discflight/discimg/internal/catalog"
	"github.com/discflight/discimg/internal/loader"
)

const sheet = `Manufacturer / Distributor,Disc Model,Max Weight (gr),Diameter (cm),Class,Last Year Production,Weblink
Innova,Wraith,175.1,21.1,Distance Driver,,https://example.com/wraith
Discraft,Buzzz,180.1,21.7,Midrange,,https://example.com/buzzz
Innova,Wraith,175.1,21.1,Distance Driver,,https://example.com/wraith
Lightning,Rubber Putter,,,Putter,2003,
`

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db := catalog.OpenMemoryDB(t)
	require.NoError(t, loader.EnsureTable(context.Background(), db, "discs"))
	return db
}

func TestEnsureTableRejectsInvalidName(t *testing.T) {
	t.Parallel()

	db := catalog.OpenMemoryDB(t)
	err := loader.EnsureTable(context.Background(), db, "discs; --")
	assert.Error(t, err)
}

func TestImportDeduplicatesOnManufacturerAndModel(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	ctx := context.Background()

	report, err := loader.Import(ctx, db, "discs", strings.NewReader(sheet))
	require.NoError(t, err)
	assert.Equal(t, loader.Report{Inserted: 3, Skipped: 1, Total: 4}, report)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM discs").Scan(&count))
	assert.Equal(t, 3, count)

	// A repeat import is a no-op.
	report, err = loader.Import(ctx, db, "discs", strings.NewReader(sheet))
	require.NoError(t, err)
	assert.Equal(t, loader.Report{Inserted: 0, Skipped: 4, Total: 4}, report)
}

func TestImportStoresNullForBlankFields(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	ctx := context.Background()

	_, err := loader.Import(ctx, db, "discs", strings.NewReader(sheet))
	require.NoError(t, err)

	var maxWeight sql.NullFloat64
	var weblink sql.NullString
	row := db.QueryRow(
		"SELECT max_weight, weblink FROM discs WHERE manufacturer = ? AND model = ?",
		"Lightning", "Rubber Putter",
	)
	require.NoError(t, row.Scan(&maxWeight, &weblink))
	assert.False(t, maxWeight.Valid, "blank weight must land as NULL")
	assert.False(t, weblink.Valid, "blank weblink must land as NULL")

	var lastYear sql.NullInt64
	row = db.QueryRow(
		"SELECT last_year_production FROM discs WHERE manufacturer = ? AND model = ?",
		"Lightning", "Rubber Putter",
	)
	require.NoError(t, row.Scan(&lastYear))
	require.True(t, lastYear.Valid)
	assert.Equal(t, int64(2003), lastYear.Int64)
}

func TestImportCreatesEmptyFlightPathSlots(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	ctx := context.Background()

	_, err := loader.Import(ctx, db, "discs", strings.NewReader(sheet))
	require.NoError(t, err)

	var bh1, bh2, bh3, fh1, fh2, fh3 sql.NullString
	row := db.QueryRow(
		"SELECT bh1, bh2, bh3, fh1, fh2, fh3 FROM discs WHERE manufacturer = ? AND model = ?",
		"Innova", "Wraith",
	)
	require.NoError(t, row.Scan(&bh1, &bh2, &bh3, &fh1, &fh2, &fh3))
	for i, col := range []sql.NullString{bh1, bh2, bh3, fh1, fh2, fh3} {
		assert.False(t, col.Valid, "flight-path slot %d must start NULL", i)
	}
}

func TestImportedRowsFeedCandidateSelection(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	ctx := context.Background()

	_, err := loader.Import(ctx, db, "discs", strings.NewReader(sheet))
	require.NoError(t, err)

	store, err := catalog.NewStore(db, "discs")
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(ctx))

	discs, err := store.PendingDiscs(ctx)
	require.NoError(t, err)
	// The putter row has no weblink and is not a candidate.
	require.Len(t, discs, 2)
	assert.Equal(t, "Wraith", discs[0].Model)
	assert.Equal(t, "Buzzz", discs[1].Model)
}

func TestImportFailsOnMissingHeader(t *testing.T) {
	t.Parallel()

	db := newDB(t)
	_, err := loader.Import(context.Background(), db, "discs", strings.NewReader(""))
	assert.Error(t, err)
}
