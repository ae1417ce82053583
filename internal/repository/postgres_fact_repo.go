package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/pawpost/internal/model"
)

// PostgresFactRepo はPostgreSQLを使用したdog factsリポジトリ。
type PostgresFactRepo struct {
	db *sql.DB
}

var _ FactRepository = (*PostgresFactRepo)(nil)

// NewPostgresFactRepo はPostgresFactRepoを生成する。
func NewPostgresFactRepo(db *sql.DB) *PostgresFactRepo {
	return &PostgresFactRepo{db: db}
}

// ListAll は全件をID順に返す。
func (r *PostgresFactRepo) ListAll(ctx context.Context) ([]model.DogFact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, fact, created_at FROM dog_facts ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dog facts: %w", err)
	}
	defer rows.Close()

	facts := []model.DogFact{}
	for rows.Next() {
		var f model.DogFact
		if err := rows.Scan(&f.ID, &f.Fact, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dog fact: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dog facts: %w", err)
	}

	return facts, nil
}
