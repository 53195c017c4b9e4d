package services

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/model"
	"github.com/username/finvision/backend/src/models"
	"github.com/username/finvision/backend/src/parsers"
	"github.com/username/finvision/backend/src/security/validation"
)

const (
	ckSnapshot             = "snapshot_user_%d"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// rawFilterSymbolKeys and rawFilterQuantityKeys are the pre-normalization
// position filter: a record survives only if one of these exact raw column
// spellings carries a symbol and a strictly positive quantity. This list is
// intentionally narrower than the synonym table the normalizer uses, and the
// two vocabularies must stay separate.
var (
	rawFilterSymbolKeys   = []string{"Scrip Name", "Stock Name", "Scrip", "Symbol", "Name"}
	rawFilterQuantityKeys = []string{"Quantity Held", "Quantity", "Qty", "Holdings"}
)

type ingestionServiceImpl struct {
	db            *sql.DB
	snapshotCache *cache.Cache
}

func NewIngestionService(db *sql.DB, snapshotCache *cache.Cache) IngestionService {
	return &ingestionServiceImpl{
		db:            db,
		snapshotCache: snapshotCache,
	}
}

// headerKeyedRecords re-interprets rows (first row = header) as ordered
// column-name-to-value records. Cells beyond the header width are dropped;
// missing trailing cells read as empty.
func headerKeyedRecords(rows [][]string) []map[string]string {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				record[name] = row[i]
			} else {
				record[name] = ""
			}
		}
		records = append(records, record)
	}
	return records
}

// isPosition applies the raw-column filter: some symbol-like cell is
// non-empty AND some quantity-like cell parses strictly positive.
func isPosition(record map[string]string) bool {
	hasSymbol := false
	for _, key := range rawFilterSymbolKeys {
		if record[key] != "" {
			hasSymbol = true
			break
		}
	}
	if !hasSymbol {
		return false
	}
	for _, key := range rawFilterQuantityKeys {
		if parsers.ParseAmount(record[key]) > 0 {
			return true
		}
	}
	return false
}

func (s *ingestionServiceImpl) ProcessUpload(fileReader io.Reader, fileExt string, userID int64, email string) (*models.HoldingsSnapshot, error) {
	startTime := time.Now()
	logger.L.Info("ProcessUpload START", "userID", userID, "fileExt", fileExt)

	decoder, err := parsers.GetDecoder(fileExt)
	if err != nil {
		return nil, err
	}

	rows, err := decoder.Decode(fileReader)
	if err != nil {
		return nil, err
	}

	headerIndex, err := parsers.LocateHeaderRow(rows)
	if err != nil {
		return nil, err
	}
	logger.L.Debug("Header row located", "userID", userID, "index", headerIndex, "preambleRows", headerIndex)

	records := headerKeyedRecords(rows[headerIndex:])

	holdings := make([]models.CanonicalHolding, 0, len(records))
	for _, record := range records {
		if !isPosition(record) {
			continue
		}
		holding := parsers.NormalizeHolding(record)
		holding.Symbol = validation.SanitizeForFormulaInjection(validation.StripUnprintable(holding.Symbol))
		if err := validation.ValidateStringMaxLength(holding.Symbol, validation.MaxSymbolLength, "symbol"); err != nil {
			logger.L.Warn("Truncating oversized symbol cell", "userID", userID, "error", err)
			holding.Symbol = string([]rune(holding.Symbol)[:validation.MaxSymbolLength])
		}
		if err := validation.ValidateISIN(holding.ISIN); err != nil {
			logger.L.Debug("Dropping malformed ISIN", "userID", userID, "isin", holding.ISIN)
			holding.ISIN = ""
		}
		holdings = append(holdings, holding)
	}

	snapshot, err := s.replace(userID, email, holdings)
	if err != nil {
		return nil, err
	}

	logger.L.Info("ProcessUpload DONE", "userID", userID,
		"rows", len(rows), "positions", len(holdings), "duration", time.Since(startTime))
	return snapshot, nil
}

func (s *ingestionServiceImpl) ReplaceFromBroker(userID int64, email string, holdings []models.CanonicalHolding) (*models.HoldingsSnapshot, error) {
	logger.L.Info("ReplaceFromBroker START", "userID", userID, "holdings", len(holdings))
	for i := range holdings {
		holdings[i].Source = models.SourceUpstox
	}
	return s.replace(userID, email, holdings)
}

// replace overwrites the user's snapshot and refreshes the read cache. Both
// ingestion paths funnel through here so they cannot diverge on semantics.
func (s *ingestionServiceImpl) replace(userID int64, email string, holdings []models.CanonicalHolding) (*models.HoldingsSnapshot, error) {
	uploadedAt := time.Now()
	if err := model.ReplaceSnapshot(s.db, userID, email, holdings, uploadedAt); err != nil {
		return nil, fmt.Errorf("error replacing holdings snapshot: %w", err)
	}

	snapshot := &models.HoldingsSnapshot{
		UserID:     userID,
		Email:      email,
		Holdings:   holdings,
		UploadedAt: uploadedAt,
	}
	s.snapshotCache.Set(fmt.Sprintf(ckSnapshot, userID), snapshot, DefaultCacheExpiration)
	return snapshot, nil
}

func (s *ingestionServiceImpl) GetSnapshot(userID int64) (*models.HoldingsSnapshot, error) {
	cacheKey := fmt.Sprintf(ckSnapshot, userID)
	if cached, found := s.snapshotCache.Get(cacheKey); found {
		return cached.(*models.HoldingsSnapshot), nil
	}

	snapshot, err := model.GetSnapshotByUserID(s.db, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading holdings snapshot: %w", err)
	}

	s.snapshotCache.Set(cacheKey, snapshot, DefaultCacheExpiration)
	return snapshot, nil
}

func (s *ingestionServiceImpl) InvalidateUserCache(userID int64) {
	s.snapshotCache.Delete(fmt.Sprintf(ckSnapshot, userID))
}
