package integration

import (
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"github.com/vidmill/videos-ms-go/internal/migration"
	"github.com/vidmill/videos-ms-go/test/testutil"
)

func TestMigrateUpIntegration(t *testing.T) {
	testDB, err := testutil.SetupTestDB()
	if err != nil {
		t.Fatalf("setup DB: %v", err)
	}
	defer testDB.Cleanup()

	db := testDB.DB

	if err := migration.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	recs := 0
	if err := db.QueryRow("SELECT COUNT(*) FROM videos").Scan(&recs); err != nil {
		t.Fatalf("failed to query migrated table: %v", err)
	}
	if recs != 0 {
		t.Errorf("expected 0 rows in videos after migration, got %d", recs)
	}

	// a second run must be a no-op, not an error
	if err := migration.MigrateUp(db); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}
}
