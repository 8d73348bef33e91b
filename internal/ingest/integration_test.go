package ingest_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	goparquet "github.com/parquet-go/parquet-go"

	"github.com/maggiexgao/explain-my-bills/internal/config"
	"github.com/maggiexgao/explain-my-bills/internal/db"
	"github.com/maggiexgao/explain-my-bills/internal/ingest"
	"github.com/maggiexgao/explain-my-bills/internal/logging"
	"github.com/maggiexgao/explain-my-bills/internal/model"
	"github.com/maggiexgao/explain-my-bills/internal/schedule"
	embedsql "github.com/maggiexgao/explain-my-bills/internal/sql"
)

const (
	testPort     = 15433
	testDB       = "billbenchtest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

func TestMain(m *testing.M) {
	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB creates a connection pool and applies migrations on clean schemas.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, schema := range []string{"ingest", "ref"} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Fatalf("drop schema %s: %v", schema, err)
		}
	}

	log := logging.Setup("text")
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

// fixtureRows is a small schedule covering every resolver path: a direct-fee
// code, an RVU-only code, a modifier variant, a bundled code, and a duplicate
// that the transform must collapse.
func fixtureRows() []model.RVUParquetRow {
	return []model.RVUParquetRow{
		{Year: 2025, HCPCSCode: "99213", Description: "Office visit, established", StatusCode: str("A"), NonFacFee: f64(92.50), FacFee: f64(68.00)},
		{Year: 2025, HCPCSCode: "99214", Description: "Office visit, extended", StatusCode: str("A"), WorkRVU: f64(1.92), NonFacPERVU: f64(1.56), MPRVU: f64(0.1), ConversionFactor: f64(32.74)},
		{Year: 2025, HCPCSCode: "27130", Modifier: str("80"), Description: "Hip arthroplasty, assistant", StatusCode: str("A"), NonFacFee: f64(300.00)},
		{Year: 2025, HCPCSCode: "90460", Description: "Immunization admin", StatusCode: str("B")},
		{Year: 2025, HCPCSCode: "99213", Description: "Office visit, duplicate extract row", StatusCode: str("A"), NonFacFee: f64(99.99)},
		{Year: 2026, HCPCSCode: "99213", Description: "Office visit, next year", StatusCode: str("A"), NonFacFee: f64(94.00)},
		{Year: 0, HCPCSCode: "99999"}, // rejected during staging: no year
	}
}

// writeFixture writes the fixture rows to a Parquet file under dir.
func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "rvu-fixture.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	w := goparquet.NewGenericWriter[model.RVUParquetRow](f)
	if _, err := w.Write(fixtureRows()); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close fixture writer: %v", err)
	}
	return path
}

func TestLoadEndToEnd(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	log := logging.Setup("text")

	cfg := &config.Config{
		DSN:         testDSN,
		FilePath:    writeFixture(t, t.TempDir()),
		LogFormat:   "text",
		KeepStaging: true,
	}

	summary, err := ingest.Run(ctx, pool, log, cfg)
	if err != nil {
		t.Fatalf("ingest.Run: %v", err)
	}

	t.Run("summary_metrics", func(t *testing.T) {
		if summary.RowsRead != 7 {
			t.Errorf("RowsRead = %d, want 7", summary.RowsRead)
		}
		if summary.RowsStaged != 6 {
			t.Errorf("RowsStaged = %d, want 6 (one row has no year)", summary.RowsStaged)
		}
		if summary.RowsRejected != 1 {
			t.Errorf("RowsRejected = %d, want 1", summary.RowsRejected)
		}
		// The duplicate 99213 row collapses during transform.
		if summary.RowsServing != 5 {
			t.Errorf("RowsServing = %d, want 5", summary.RowsServing)
		}
	})

	t.Run("staging_kept", func(t *testing.T) {
		var count int64
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM ingest.stage_fee_rows").Scan(&count); err != nil {
			t.Fatalf("query staging count: %v", err)
		}
		if count != 6 {
			t.Errorf("staging rows = %d, want 6", count)
		}
	})

	t.Run("duplicate_resolved_to_first_row", func(t *testing.T) {
		var fee int64
		err := pool.QueryRow(ctx,
			"SELECT non_fac_fee_cents FROM ref.fee_schedule WHERE code = '99213' AND modifier = '' AND year = 2025",
		).Scan(&fee)
		if err != nil {
			t.Fatalf("query fee: %v", err)
		}
		if fee != 9250 {
			t.Errorf("fee = %d, want 9250 from the earliest source row", fee)
		}
	})

	t.Run("file_marked_loaded", func(t *testing.T) {
		var status string
		if err := pool.QueryRow(ctx,
			"SELECT status FROM ref.schedule_files WHERE schedule_file_id = $1", summary.ScheduleFileID,
		).Scan(&status); err != nil {
			t.Fatalf("query status: %v", err)
		}
		if status != "loaded" {
			t.Errorf("status = %q, want loaded", status)
		}
	})

	t.Run("reload_skipped_without_force", func(t *testing.T) {
		again, err := ingest.Run(ctx, pool, log, cfg)
		if err != nil {
			t.Fatalf("second run: %v", err)
		}
		if !again.AlreadyLoaded {
			t.Error("an identical file must be skipped without --force")
		}
	})

	t.Run("year_activation", func(t *testing.T) {
		var count int64
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM ref.active_year").Scan(&count); err != nil {
			t.Fatalf("query active year count: %v", err)
		}
		if count != 0 {
			t.Fatalf("a load without --activate-year must not set the active year")
		}

		activated := *cfg
		activated.Force = true
		activated.ActivateYear = true
		if _, err := ingest.Run(ctx, pool, log, &activated); err != nil {
			t.Fatalf("activating run: %v", err)
		}

		var year int
		if err := pool.QueryRow(ctx, "SELECT year FROM ref.active_year").Scan(&year); err != nil {
			t.Fatalf("query active year: %v", err)
		}
		// The newest year in the file wins, and the marker stays single-row.
		if year != 2026 {
			t.Errorf("active year = %d, want 2026", year)
		}
		if _, err := pool.Exec(ctx, embedsql.ActivateYear, 2025); err != nil {
			t.Fatalf("re-activate: %v", err)
		}
		if err := pool.QueryRow(ctx, "SELECT count(*) FROM ref.active_year").Scan(&count); err != nil {
			t.Fatalf("recount active year: %v", err)
		}
		if count != 1 {
			t.Errorf("active year rows = %d, want exactly 1 after re-activation", count)
		}
	})

	t.Run("store_and_resolver_against_postgres", func(t *testing.T) {
		store := db.NewScheduleStore(pool)

		latest, err := store.LatestYear(ctx)
		if err != nil || latest != 2026 {
			t.Fatalf("LatestYear = %d, %v; want 2026", latest, err)
		}

		row, err := store.FeeRow(ctx, "27130", 2025, "80")
		if err != nil {
			t.Fatalf("FeeRow modifier: %v", err)
		}
		if row.NonFacFeeCents == nil || *row.NonFacFeeCents != 30000 {
			t.Errorf("modifier row fee = %v, want 30000", row.NonFacFeeCents)
		}

		if _, err := store.FeeRow(ctx, "99999", 2025, ""); err != schedule.ErrNotFound {
			t.Errorf("missing code err = %v, want ErrNotFound", err)
		}

		resolver, err := schedule.NewResolver(ctx, store, logging.Setup("text"))
		if err != nil {
			t.Fatalf("NewResolver: %v", err)
		}
		res := resolver.Resolve(ctx,
			model.ServiceCode{Code: "99213", System: model.SystemCPT},
			2025, model.Geography{}, false, 1)
		if res.Status != model.MatchFound || *res.FeePerUnitCents != 9250 {
			t.Errorf("resolve 99213 = %+v, want matched at 9250", res)
		}

		res = resolver.Resolve(ctx,
			model.ServiceCode{Code: "90460", System: model.SystemCPT},
			2025, model.Geography{}, false, 1)
		if res.Status != model.MatchNotPriced {
			t.Errorf("bundled code status = %v, want exists_but_not_priced", res.Status)
		}
	})
}

func TestGPCILocalityQueries(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	gpciRows := [][]any{
		{"05", "San Francisco, CA", "CA", false, 1.1, 1.3, 0.6},
		{"99", "California statewide", "CA", true, 1.05, 1.15, 0.7},
	}
	for _, args := range gpciRows {
		if _, err := pool.Exec(ctx, embedsql.UpsertGPCILocality, args...); err != nil {
			t.Fatalf("upsert locality: %v", err)
		}
	}
	if _, err := pool.Exec(ctx, embedsql.UpsertZIPLocality, "941", "05"); err != nil {
		t.Fatalf("upsert zip mapping: %v", err)
	}

	store := db.NewScheduleStore(pool)

	loc, err := store.LocalityByZIP(ctx, "94110")
	if err != nil {
		t.Fatalf("LocalityByZIP: %v", err)
	}
	if loc.LocalityName != "San Francisco, CA" || loc.WorkGPCI != 1.1 {
		t.Errorf("zip locality = %+v", loc)
	}

	loc, err = store.LocalityByState(ctx, "CA")
	if err != nil {
		t.Fatalf("LocalityByState: %v", err)
	}
	// The state default row wins over city localities.
	if loc.LocalityName != "California statewide" {
		t.Errorf("state locality = %+v, want the state default", loc)
	}

	if _, err := store.LocalityByZIP(ctx, "10001"); err != schedule.ErrNotFound {
		t.Errorf("unknown zip err = %v, want ErrNotFound", err)
	}
}
