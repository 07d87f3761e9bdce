package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

const (
	itemKindTeacher = "teacher"
	itemKindSubject = "subject"
	itemKindRoom    = "room"
)

func insertDomainConfigItems(ctx context.Context, tx *sql.Tx, configID int64, input *domain.TimetableInput) error {
	query := `
		INSERT INTO domain_config_items (domain_config_id, kind, position, value)
		VALUES ($1, $2, $3, $4)
	`

	groups := []struct {
		kind  string
		items []string
	}{
		{itemKindTeacher, input.Teachers},
		{itemKindSubject, input.Subjects},
		{itemKindRoom, input.Rooms},
	}

	for _, group := range groups {
		for position, value := range group.items {
			if _, err := tx.ExecContext(ctx, query, configID, group.kind, position, value); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Repository) CreateDomainConfig(dc *domain.DomainConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO domain_configs (name, classes, days, lessons)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	args := []any{dc.Name, dc.Classes, dc.Days, dc.Lessons}
	dst := []any{&dc.ID, &dc.CreatedAt, &dc.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	if err := insertDomainConfigItems(ctx, tx, dc.ID, &dc.TimetableInput); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// scanDomainConfigs 将 domain_configs 与 domain_config_items 的 LEFT JOIN 结果组装起来
// 要求结果按 id, kind, position 排序
func scanDomainConfigs(rows *sql.Rows) ([]*domain.DomainConfig, error) {
	configs := make([]*domain.DomainConfig, 0)
	configsMap := make(map[int64]*domain.DomainConfig)

	for rows.Next() {
		var row struct {
			ID        int64
			Name      string
			Classes   int32
			Days      int32
			Lessons   int32
			CreatedAt time.Time
			Version   int32

			Kind  sql.NullString
			Value sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Classes,
			&row.Days,
			&row.Lessons,
			&row.CreatedAt,
			&row.Version,
			&row.Kind,
			&row.Value,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		dc, exists := configsMap[row.ID]
		if !exists {
			// 第一次查到这个配置，需要先初始化
			dc = &domain.DomainConfig{
				ID:   row.ID,
				Name: row.Name,
				TimetableInput: domain.TimetableInput{
					Classes:  row.Classes,
					Teachers: make([]string, 0),
					Subjects: make([]string, 0),
					Rooms:    make([]string, 0),
					Days:     row.Days,
					Lessons:  row.Lessons,
				},
				CreatedAt: row.CreatedAt,
				Version:   row.Version,
			}
			configsMap[row.ID] = dc
			configs = append(configs, dc)
		}

		if !row.Kind.Valid || !row.Value.Valid {
			// 说明这个配置没有任何条目，业务上不可能出现，但还是处理一下
			continue
		}

		switch row.Kind.String {
		case itemKindTeacher:
			dc.Teachers = append(dc.Teachers, row.Value.String)
		case itemKindSubject:
			dc.Subjects = append(dc.Subjects, row.Value.String)
		case itemKindRoom:
			dc.Rooms = append(dc.Rooms, row.Value.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return configs, nil
}

func (r *Repository) GetAllDomainConfigs() ([]*domain.DomainConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			dc.id,
			dc.name,
			dc.classes,
			dc.days,
			dc.lessons,
			dc.created_at,
			dc.version,
			dci.kind,
			dci.value
		FROM domain_configs dc
		LEFT JOIN domain_config_items dci ON dc.id = dci.domain_config_id
		ORDER BY dc.id, dci.kind, dci.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDomainConfigs(rows)
}

func (r *Repository) GetDomainConfig(id int64) (*domain.DomainConfig, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			dc.id,
			dc.name,
			dc.classes,
			dc.days,
			dc.lessons,
			dc.created_at,
			dc.version,
			dci.kind,
			dci.value
		FROM domain_configs dc
		LEFT JOIN domain_config_items dci ON dc.id = dci.domain_config_id
		WHERE dc.id = $1
		ORDER BY dci.kind, dci.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs, err := scanDomainConfigs(rows)
	if err != nil {
		return nil, err
	}

	if len(configs) == 0 {
		return nil, sql.ErrNoRows
	}

	return configs[0], nil
}

func (r *Repository) UpdateDomainConfig(dc *domain.DomainConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE domain_configs
		SET
			name = $1,
			classes = $2,
			days = $3,
			lessons = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	args := []any{dc.Name, dc.Classes, dc.Days, dc.Lessons, dc.ID, dc.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&dc.Version); err != nil {
		return err
	}

	// 条目整体替换
	query = `DELETE FROM domain_config_items WHERE domain_config_id = $1`
	if _, err := tx.ExecContext(ctx, query, dc.ID); err != nil {
		return err
	}

	if err := insertDomainConfigItems(ctx, tx, dc.ID, &dc.TimetableInput); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteDomainConfig(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `DELETE FROM domain_configs WHERE id = $1`

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
