package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"

	"ratiolens/ratio"
)

const (
	// SQL statements.
	createAnalysisTableSQL = "CREATE TABLE IF NOT EXISTS analysis (id TEXT PRIMARY KEY, runid TEXT, ratio TEXT, symbol1 TEXT, symbol2 TEXT, timeframe TEXT, days INTEGER, latest REAL, mean REAL, std REAL, min REAL, max REAL, percentile REAL, classification TEXT, points INTEGER, excluded INTEGER, createdon INTEGER)"
	persistAnalysisSQL     = "INSERT INTO analysis(id, runid, ratio, symbol1, symbol2, timeframe, days, latest, mean, std, min, max, percentile, classification, points, excluded, createdon) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)"
)

// AnalysisRecord represents one completed ratio analysis to persist.
type AnalysisRecord struct {
	ID        string
	RunID     string
	Ratio     string
	Symbol1   string
	Symbol2   string
	Timeframe string
	Days      int
	Summary   *ratio.Summary
	CreatedOn time.Time
}

// SummaryStorer defines the requirements for storing analysis summaries.
type SummaryStorer interface {
	// PersistAnalysis stores the provided completed analysis to the database.
	PersistAnalysis(ctx context.Context, record *AnalysisRecord) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the SummaryStorer interface.
var _ SummaryStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createAnalysisTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// PersistAnalysis stores the provided completed analysis to the database.
func (db *Database) PersistAnalysis(ctx context.Context, record *AnalysisRecord) error {
	summary := record.Summary

	switch summary.Classification {
	case ratio.High, ratio.Low, ratio.Normal:
		// expected.
	default:
		db.cfg.Logger.Error().Msgf("unexpected classification for analysis record: %s", spew.Sdump(record))
	}

	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistAnalysisSQL,
			PositionalParams: []any{record.ID, record.RunID, record.Ratio, record.Symbol1,
				record.Symbol2, record.Timeframe, record.Days, summary.Latest, summary.Mean,
				summary.Std, summary.Min, summary.Max, summary.PercentileRank,
				summary.Classification.String(), summary.Points, summary.Excluded,
				record.CreatedOn.Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting analysis %s: %d -> %s", record.Ratio, idx, errStr)
	}

	return nil
}
