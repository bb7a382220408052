package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/EQAR/eqar-db/models"
)

func (q Queries) CreateAgency(ctx context.Context, a *models.Agency) error {
	a.UpdatedAt = now()
	query := `
        INSERT INTO agency (short_name, name, registered, updated_at)
        VALUES (?, ?, ?, ?)
        RETURNING id`
	err := q.q.QueryRowxContext(ctx, q.q.Rebind(query), a.ShortName, a.Name, a.Registered, a.UpdatedAt).
		Scan(&a.ID)
	return errors.Wrap(err, "insert agency")
}

func (q Queries) GetAgency(ctx context.Context, id int) (*models.Agency, error) {
	a := &models.Agency{}
	query := `SELECT id, short_name, name, registered, updated_at FROM agency WHERE id = ?`
	if err := q.get(ctx, a, query, id); err != nil {
		return nil, err
	}
	return a, nil
}

func (q Queries) ListAgencies(ctx context.Context) ([]models.Agency, error) {
	agencies := []models.Agency{}
	query := `SELECT id, short_name, name, registered, updated_at FROM agency ORDER BY short_name, id`
	err := q.selectAll(ctx, &agencies, query)
	return agencies, errors.Wrap(err, "list agencies")
}
