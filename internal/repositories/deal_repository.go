package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"dealdesk/internal/apperr"
	"dealdesk/internal/models"
)

type dealRepository struct {
	db *sql.DB
}

func NewDealRepository(db *sql.DB) DealRepository {
	return &dealRepository{db: db}
}

const dealColumns = `id, tenant_id, owner_id, contact_id, pipeline_id, stage_id, title,
	amount, currency, status, probability, close_date, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(row rowScanner) (models.Deal, error) {
	var d models.Deal
	var closeDate sql.NullTime
	err := row.Scan(
		&d.ID, &d.TenantID, &d.OwnerID, &d.ContactID, &d.PipelineID, &d.StageID, &d.Title,
		&d.Amount, &d.Currency, &d.Status, &d.Probability, &closeDate, &d.Version,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if closeDate.Valid {
		t := closeDate.Time
		d.CloseDate = &t
	}
	return d, err
}

// lockStage takes a shared lock on the stage row so a concurrent pipeline
// update or delete cannot remove it before this transaction commits.
func lockStage(ctx context.Context, tx *sql.Tx, pipelineID int64, stageID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `
		SELECT 1 FROM pipeline_stages
		WHERE pipeline_id = $1 AND id = $2 FOR SHARE`,
		pipelineID, stageID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Validation("stage %q does not belong to pipeline %d", stageID, pipelineID)
	}
	return err
}

func (r *dealRepository) Create(ctx context.Context, d *models.Deal) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockStage(ctx, tx, d.PipelineID, d.StageID); err != nil {
			return err
		}
		d.Version = 1
		err := tx.QueryRowContext(ctx, `
			INSERT INTO deals (tenant_id, owner_id, contact_id, pipeline_id, stage_id, title,
				amount, currency, status, probability, close_date, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
			RETURNING id`,
			d.TenantID, d.OwnerID, d.ContactID, d.PipelineID, d.StageID, d.Title,
			d.Amount, d.Currency, d.Status, d.Probability, d.CloseDate, d.Version, d.CreatedAt,
		).Scan(&d.ID)
		if err != nil {
			return err
		}
		d.UpdatedAt = d.CreatedAt
		for _, e := range d.StageHistory {
			if err := insertHistory(ctx, tx, d.ID, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return dbErr(err, "create deal")
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, dealID int64, e models.StageHistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO deal_stage_history (deal_id, stage_id, entered_at, exited_at)
		VALUES ($1, $2, $3, $4)`,
		dealID, e.StageID, e.EnteredAt, e.ExitedAt,
	)
	if isUniqueViolation(err) {
		return apperr.Conflict("deal %d already has an open stage entry", dealID)
	}
	return err
}

func (r *dealRepository) GetByID(ctx context.Context, tenantID, id int64) (*models.Deal, error) {
	d, err := scanDeal(r.db.QueryRowContext(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("deal not found")
	}
	if err != nil {
		return nil, dbErr(err, "get deal")
	}
	deals := []models.Deal{d}
	if err := r.attachHistory(ctx, deals); err != nil {
		return nil, dbErr(err, "get deal history")
	}
	return &deals[0], nil
}

func (r *dealRepository) List(ctx context.Context, tenantID int64, filter models.DealFilter) ([]models.Deal, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argID := 2

	if filter.ContactID != nil {
		conditions = append(conditions, fmt.Sprintf("contact_id = $%d", argID))
		args = append(args, *filter.ContactID)
		argID++
	}
	if filter.PipelineID != nil {
		conditions = append(conditions, fmt.Sprintf("pipeline_id = $%d", argID))
		args = append(args, *filter.PipelineID)
		argID++
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argID))
		args = append(args, *filter.OwnerID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
	}

	query := `SELECT ` + dealColumns + ` FROM deals WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr(err, "list deals")
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, dbErr(err, "list deals")
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "list deals")
	}
	if err := r.attachHistory(ctx, deals); err != nil {
		return nil, dbErr(err, "list deal history")
	}
	return deals, nil
}

func (r *dealRepository) attachHistory(ctx context.Context, deals []models.Deal) error {
	if len(deals) == 0 {
		return nil
	}
	ids := make([]int64, len(deals))
	index := make(map[int64]int, len(deals))
	for i, d := range deals {
		ids[i] = d.ID
		index[d.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT deal_id, stage_id, entered_at, exited_at FROM deal_stage_history
		WHERE deal_id = ANY($1) ORDER BY deal_id, id`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var dealID int64
		var e models.StageHistoryEntry
		var exited sql.NullTime
		if err := rows.Scan(&dealID, &e.StageID, &e.EnteredAt, &exited); err != nil {
			return err
		}
		if exited.Valid {
			t := exited.Time
			e.ExitedAt = &t
		}
		i := index[dealID]
		deals[i].StageHistory = append(deals[i].StageHistory, e)
	}
	return rows.Err()
}

func (r *dealRepository) UpdateFields(ctx context.Context, d *models.Deal) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE deals SET contact_id = $1, title = $2, amount = $3, currency = $4,
			status = $5, probability = $6, close_date = $7, updated_at = $8
		WHERE id = $9 AND tenant_id = $10`,
		d.ContactID, d.Title, d.Amount, d.Currency, d.Status, d.Probability, d.CloseDate,
		d.UpdatedAt, d.ID, d.TenantID,
	)
	if err != nil {
		return dbErr(err, "update deal")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dbErr(err, "update deal")
	}
	if affected == 0 {
		return apperr.NotFound("deal not found")
	}
	return nil
}

func (r *dealRepository) SaveTransition(ctx context.Context, d *models.Deal, expectedVersion int64) error {
	n := len(d.StageHistory)
	if n < 2 || d.StageHistory[n-2].ExitedAt == nil {
		return apperr.Internal(models.ErrNoTransition, "deal %d: no transition recorded in history", d.ID)
	}
	closedAt := *d.StageHistory[n-2].ExitedAt
	entered := d.StageHistory[n-1]

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockStage(ctx, tx, d.PipelineID, d.StageID); err != nil {
			return err
		}

		var updatedAt time.Time
		err := tx.QueryRowContext(ctx, `
			UPDATE deals SET stage_id = $1, version = version + 1, updated_at = $2
			WHERE id = $3 AND tenant_id = $4 AND version = $5
			RETURNING updated_at`,
			d.StageID, entered.EnteredAt, d.ID, d.TenantID, expectedVersion,
		).Scan(&updatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Conflict("deal %d was changed concurrently, reload and retry", d.ID)
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE deal_stage_history SET exited_at = $1
			WHERE deal_id = $2 AND exited_at IS NULL`,
			closedAt, d.ID,
		); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, d.ID, entered); err != nil {
			return err
		}
		d.UpdatedAt = updatedAt
		return nil
	})
	if err != nil {
		return dbErr(err, "save stage transition")
	}
	d.Version = expectedVersion + 1
	return nil
}

func (r *dealRepository) Delete(ctx context.Context, tenantID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return dbErr(err, "delete deal")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dbErr(err, "delete deal")
	}
	if affected == 0 {
		return apperr.NotFound("deal not found")
	}
	return nil
}

func (r *dealRepository) Stats(ctx context.Context, tenantID int64) (models.DealStats, error) {
	var s models.DealStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'won'),
			COUNT(*) FILTER (WHERE status = 'lost'),
			COALESCE(SUM(amount), 0)
		FROM deals WHERE tenant_id = $1`, tenantID,
	).Scan(&s.OpenDeals, &s.WonDeals, &s.LostDeals, &s.TotalDealValue)
	if err != nil {
		return s, dbErr(err, "deal stats")
	}
	return s, nil
}
