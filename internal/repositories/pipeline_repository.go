package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"dealdesk/internal/apperr"
	"dealdesk/internal/models"
)

type pipelineRepository struct {
	db *sql.DB
}

func NewPipelineRepository(db *sql.DB) PipelineRepository {
	return &pipelineRepository{db: db}
}

func (r *pipelineRepository) Create(ctx context.Context, p *models.Pipeline) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO pipelines (tenant_id, name, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			RETURNING id, created_at, updated_at`,
			p.TenantID, p.Name, time.Now().UTC(),
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("pipeline %q already exists", p.Name)
			}
			return err
		}
		return insertStages(ctx, tx, p.ID, p.Stages)
	})
	if err != nil {
		return dbErr(err, "create pipeline")
	}
	return nil
}

func insertStages(ctx context.Context, tx *sql.Tx, pipelineID int64, stages []models.Stage) error {
	for i, s := range stages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pipeline_stages (pipeline_id, id, name, sort_order, position)
			VALUES ($1, $2, $3, $4, $5)`,
			pipelineID, s.ID, s.Name, s.Order, i,
		); err != nil {
			if isUniqueViolation(err) {
				return apperr.Validation("duplicate stage id %q", s.ID)
			}
			return err
		}
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *pipelineRepository) GetByID(ctx context.Context, tenantID, id int64) (*models.Pipeline, error) {
	p, err := getPipeline(ctx, r.db, tenantID, id, false)
	if err != nil {
		return nil, dbErr(err, "get pipeline")
	}
	return p, nil
}

func getPipeline(ctx context.Context, q queryer, tenantID, id int64, forUpdate bool) (*models.Pipeline, error) {
	query := `SELECT id, tenant_id, name, created_at, updated_at
		FROM pipelines WHERE id = $1 AND tenant_id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}
	p := &models.Pipeline{}
	err := q.QueryRowContext(ctx, query, id, tenantID).
		Scan(&p.ID, &p.TenantID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("pipeline not found")
	}
	if err != nil {
		return nil, err
	}
	if p.Stages, err = loadStages(ctx, q, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func loadStages(ctx context.Context, q queryer, pipelineID int64) ([]models.Stage, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, sort_order FROM pipeline_stages
		WHERE pipeline_id = $1 ORDER BY position`, pipelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := []models.Stage{}
	for rows.Next() {
		var s models.Stage
		if err := rows.Scan(&s.ID, &s.Name, &s.Order); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *pipelineRepository) GetEarliest(ctx context.Context, tenantID int64) (*models.Pipeline, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM pipelines WHERE tenant_id = $1
		ORDER BY created_at, id LIMIT 1`, tenantID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("no pipeline configured")
	}
	if err != nil {
		return nil, dbErr(err, "get earliest pipeline")
	}
	return r.GetByID(ctx, tenantID, id)
}

func (r *pipelineRepository) List(ctx context.Context, tenantID int64) ([]models.Pipeline, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tenant_id, name, created_at, updated_at
		FROM pipelines WHERE tenant_id = $1
		ORDER BY created_at, id`, tenantID)
	if err != nil {
		return nil, dbErr(err, "list pipelines")
	}
	defer rows.Close()

	pipelines := []models.Pipeline{}
	for rows.Next() {
		var p models.Pipeline
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, dbErr(err, "list pipelines")
		}
		pipelines = append(pipelines, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "list pipelines")
	}
	for i := range pipelines {
		if pipelines[i].Stages, err = loadStages(ctx, r.db, pipelines[i].ID); err != nil {
			return nil, dbErr(err, "list pipelines")
		}
	}
	return pipelines, nil
}

func (r *pipelineRepository) Update(ctx context.Context, p *models.Pipeline) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getPipeline(ctx, tx, p.TenantID, p.ID, true)
		if err != nil {
			return err
		}

		if removed := current.RemovedStages(p.Stages); len(removed) > 0 {
			// Wait for in-flight transitions holding these stage rows, then count.
			if _, err := tx.ExecContext(ctx, `
				SELECT 1 FROM pipeline_stages
				WHERE pipeline_id = $1 AND id = ANY($2) FOR UPDATE`,
				p.ID, pq.Array(removed),
			); err != nil {
				return err
			}
			var inUse int
			if err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM deals
				WHERE tenant_id = $1 AND pipeline_id = $2 AND stage_id = ANY($3)`,
				p.TenantID, p.ID, pq.Array(removed),
			).Scan(&inUse); err != nil {
				return err
			}
			if inUse > 0 {
				return apperr.Conflict("%d deal(s) are still in stages removed by this update", inUse)
			}
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE pipelines SET name = $1, updated_at = $2
			WHERE id = $3 AND tenant_id = $4
			RETURNING created_at, updated_at`,
			p.Name, time.Now().UTC(), p.ID, p.TenantID,
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("pipeline %q already exists", p.Name)
			}
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM pipeline_stages WHERE pipeline_id = $1`, p.ID); err != nil {
			return err
		}
		return insertStages(ctx, tx, p.ID, p.Stages)
	})
	if err != nil {
		return dbErr(err, "update pipeline")
	}
	return nil
}

func (r *pipelineRepository) Delete(ctx context.Context, tenantID, id int64) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := getPipeline(ctx, tx, tenantID, id, true); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`SELECT 1 FROM pipeline_stages WHERE pipeline_id = $1 FOR UPDATE`, id); err != nil {
			return err
		}

		var dealsCount int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM deals WHERE tenant_id = $1 AND pipeline_id = $2`,
			tenantID, id,
		).Scan(&dealsCount); err != nil {
			return err
		}
		if dealsCount > 0 {
			return apperr.Conflict("pipeline has deals attached")
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pipelines WHERE id = $1 AND tenant_id = $2`, id, tenantID); err != nil {
			if isFKViolation(err) {
				return apperr.Conflict("pipeline has deals attached")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return dbErr(err, "delete pipeline")
	}
	return nil
}
