package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"arbflow/internal/core/domain"
	"arbflow/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ port.RepositoryPort = (*OpportunityRepository)(nil)

// OpportunityRepository persists detected opportunities. Schema:
//
//	CREATE TABLE opportunities (
//	    id             UUID PRIMARY KEY,
//	    detected_at    TIMESTAMPTZ NOT NULL,
//	    start_currency CHAR(3) NOT NULL,
//	    start_amount   DOUBLE PRECISION NOT NULL,
//	    final_amount   DOUBLE PRECISION NOT NULL,
//	    steps          JSONB NOT NULL
//	);
type OpportunityRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewOpportunityRepository(db *pgxpool.Pool, logger *slog.Logger) *OpportunityRepository {
	return &OpportunityRepository{
		db:     db,
		logger: logger,
	}
}

func (r *OpportunityRepository) Ping(ctx context.Context) string {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Sprintf("down: %v", err)
	}
	return "up"
}

func (r *OpportunityRepository) SaveOpportunity(ctx context.Context, opp domain.Opportunity) error {
	steps, err := json.Marshal(opp.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO opportunities (id, detected_at, start_currency, start_amount, final_amount, steps)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.Exec(ctx, query,
		opp.ID,
		opp.DetectedAt,
		string(opp.Start),
		opp.StartAmount,
		opp.FinalAmount,
		steps,
	)

	if err != nil {
		r.logger.Error("failed to save opportunity", slog.Any("error", err))
		return err
	}

	return nil
}

func (r *OpportunityRepository) GetOpportunitiesByPeriod(ctx context.Context, period time.Duration) ([]domain.Opportunity, error) {
	query := `
		SELECT id, detected_at, start_currency, start_amount, final_amount, steps
		FROM opportunities
		WHERE detected_at > $1
		ORDER BY detected_at DESC
	`

	since := time.Now().Add(-period)
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			r.logger.Error("failed to scan opportunity", slog.Any("error", err))
			continue
		}
		results = append(results, opp)
	}

	return results, rows.Err()
}

func (r *OpportunityRepository) GetLatestOpportunity(ctx context.Context) (*domain.Opportunity, error) {
	query := `
		SELECT id, detected_at, start_currency, start_amount, final_amount, steps
		FROM opportunities
		ORDER BY detected_at DESC
		LIMIT 1
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	opp, err := scanOpportunity(rows)
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func scanOpportunity(rows pgx.Rows) (domain.Opportunity, error) {
	var (
		opp      domain.Opportunity
		start    string
		rawSteps []byte
	)
	err := rows.Scan(
		&opp.ID,
		&opp.DetectedAt,
		&start,
		&opp.StartAmount,
		&opp.FinalAmount,
		&rawSteps,
	)
	if err != nil {
		return domain.Opportunity{}, err
	}

	opp.Start = domain.Currency(start)
	if err := json.Unmarshal(rawSteps, &opp.Steps); err != nil {
		return domain.Opportunity{}, fmt.Errorf("unmarshal steps: %w", err)
	}
	return opp, nil
}
