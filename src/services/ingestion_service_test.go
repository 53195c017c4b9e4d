package services

import (
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/model"
	"github.com/username/finvision/backend/src/models"
	"github.com/username/finvision/backend/src/parsers"
	_ "modernc.org/sqlite"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func setupService(t *testing.T) (IngestionService, *sql.DB, *model.User) {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(on)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../db/migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	user := &model.User{Email: "ingest@example.com"}
	require.NoError(t, user.SetPin("1234"))
	require.NoError(t, user.CreateUser(db))

	svc := NewIngestionService(db, cache.New(DefaultCacheExpiration, CacheCleanupInterval))
	return svc, db, user
}

const sampleCSV = `Holdings Statement for Demat Account 123
Generated on 01-04-2024,,,
,,,
Stock Name,ISIN,Quantity,Average Buy Price
TCS,INE467B01029,10,3500
INFY,INE009A01021,5,1450.50
Total,,,
`

func TestProcessUploadCSV(t *testing.T) {
	svc, _, user := setupService(t)

	snapshot, err := svc.ProcessUpload(strings.NewReader(sampleCSV), ".csv", user.ID, user.Email)
	require.NoError(t, err)

	// The preamble rows and the footer row (no positive quantity) are
	// dropped; the two positions survive in file order.
	require.Len(t, snapshot.Holdings, 2)
	assert.Equal(t, "TCS", snapshot.Holdings[0].Symbol)
	assert.Equal(t, float64(10), snapshot.Holdings[0].Quantity)
	assert.Equal(t, float64(3500), snapshot.Holdings[0].AvgPrice)
	assert.Equal(t, "INFY", snapshot.Holdings[1].Symbol)
	assert.Equal(t, 1450.50, snapshot.Holdings[1].AvgPrice)
	for _, h := range snapshot.Holdings {
		assert.Equal(t, models.SourceUpload, h.Source)
	}
}

func TestProcessUploadPersists(t *testing.T) {
	svc, db, user := setupService(t)

	_, err := svc.ProcessUpload(strings.NewReader(sampleCSV), "csv", user.ID, user.Email)
	require.NoError(t, err)

	stored, err := model.GetSnapshotByUserID(db, user.ID)
	require.NoError(t, err)
	require.Len(t, stored.Holdings, 2)
	assert.Equal(t, user.Email, stored.Email)
}

func TestProcessUploadUnsupportedFormat(t *testing.T) {
	svc, _, user := setupService(t)

	_, err := svc.ProcessUpload(strings.NewReader("x"), ".pdf", user.ID, user.Email)
	assert.ErrorIs(t, err, parsers.ErrUnsupportedFormat)
}

func TestProcessUploadHeaderNotFoundWritesNothing(t *testing.T) {
	svc, db, user := setupService(t)

	noHeader := "Some Title\nTicker,Units\nTCS,10\n"
	_, err := svc.ProcessUpload(strings.NewReader(noHeader), ".csv", user.ID, user.Email)
	assert.ErrorIs(t, err, parsers.ErrHeaderNotFound)

	_, err = model.GetSnapshotByUserID(db, user.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = svc.GetSnapshot(user.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSequentialUploadsReplaceNotMerge(t *testing.T) {
	svc, _, user := setupService(t)

	_, err := svc.ProcessUpload(strings.NewReader(sampleCSV), ".csv", user.ID, user.Email)
	require.NoError(t, err)

	second := "Stock Name,Quantity,Average Buy Price\nSBIN,100,550\n"
	_, err = svc.ProcessUpload(strings.NewReader(second), ".csv", user.ID, user.Email)
	require.NoError(t, err)

	snapshot, err := svc.GetSnapshot(user.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Holdings, 1)
	assert.Equal(t, "SBIN", snapshot.Holdings[0].Symbol)
}

func TestFilterDropsZeroQuantityAndSymbollessRows(t *testing.T) {
	svc, _, user := setupService(t)

	csvData := strings.Join([]string{
		"Stock Name,Quantity,Average Buy Price",
		"TCS,10,3500",
		"SOLDOUT,0,100", // zero quantity
		",5,100",        // no symbol
		"NEGATIVE,-3,50",
		"",
	}, "\n")

	snapshot, err := svc.ProcessUpload(strings.NewReader(csvData), ".csv", user.ID, user.Email)
	require.NoError(t, err)
	require.Len(t, snapshot.Holdings, 1)
	assert.Equal(t, "TCS", snapshot.Holdings[0].Symbol)
}

func TestFilterUsesRawSpellingsOnly(t *testing.T) {
	svc, _, user := setupService(t)

	// "QUANTITY" normalizes to a resolvable synonym, but the raw filter list
	// is case-sensitive and misses it, so the row is dropped even though the
	// normalizer could have handled it. Intentional two-tier behaviour.
	csvData := "Stock Name,QUANTITY\nTCS,10\n"

	snapshot, err := svc.ProcessUpload(strings.NewReader(csvData), ".csv", user.ID, user.Email)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Holdings)
}

func TestReplaceFromBrokerTagsSourceAndReplaces(t *testing.T) {
	svc, _, user := setupService(t)

	_, err := svc.ProcessUpload(strings.NewReader(sampleCSV), ".csv", user.ID, user.Email)
	require.NoError(t, err)

	brokerHoldings := []models.CanonicalHolding{
		{Symbol: "HDFCBANK", ISIN: "INE040A01034", Quantity: 20, AvgPrice: 1500, CurrentPrice: 1600,
			InvestmentValue: 30000, CurrentValue: 32000, UnrealizedGainLoss: 2000},
	}
	snapshot, err := svc.ReplaceFromBroker(user.ID, user.Email, brokerHoldings)
	require.NoError(t, err)

	require.Len(t, snapshot.Holdings, 1)
	assert.Equal(t, models.SourceUpstox, snapshot.Holdings[0].Source)

	stored, err := svc.GetSnapshot(user.ID)
	require.NoError(t, err)
	require.Len(t, stored.Holdings, 1)
	assert.Equal(t, "HDFCBANK", stored.Holdings[0].Symbol)
}

func TestGetSnapshotServedFromCacheAfterUpload(t *testing.T) {
	svc, db, user := setupService(t)

	_, err := svc.ProcessUpload(strings.NewReader(sampleCSV), ".csv", user.ID, user.Email)
	require.NoError(t, err)

	// Mutate the DB behind the service's back; the cached snapshot wins
	// until invalidated.
	require.NoError(t, model.ReplaceSnapshot(db, user.ID, user.Email, nil, time.Now()))

	cached, err := svc.GetSnapshot(user.ID)
	require.NoError(t, err)
	assert.Len(t, cached.Holdings, 2)

	svc.InvalidateUserCache(user.ID)
	fresh, err := svc.GetSnapshot(user.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Holdings)
}
