package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) InsertTimetableResult(result *domain.TimetableResult) error {
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
		INSERT INTO timetable_results (
			domain_config_id,
			fitness,
			initial_fitness,
			population_size,
			max_generations,
			crossover_rate,
			mutation_rate,
			elite_count,
			seed,
			job_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	args := []any{
		result.DomainConfigID,
		result.Fitness,
		result.InitialFitness,
		result.PopulationSize,
		result.MaxGenerations,
		result.CrossoverRate,
		result.MutationRate,
		result.EliteCount,
		result.Seed,
		result.JobID,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&result.ID, &result.CreatedAt); err != nil {
		return err
	}

	query = `
		INSERT INTO timetable_result_lessons (result_id, class_index, day_index, lesson_index, subject, teacher, room)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for c, classSchedule := range result.Grid {
		for d, daySchedule := range classSchedule {
			for l, lesson := range daySchedule {
				if _, err := tx.ExecContext(ctx, query, result.ID, c, d, l, lesson.Subject, lesson.Teacher, lesson.Room); err != nil {
					return err
				}
			}
		}
	}

	query = `
		INSERT INTO timetable_result_fitness_history (result_id, generation, fitness)
		VALUES ($1, $2, $3)
	`
	for gen, fitness := range result.FitnessHistory {
		if _, err := tx.ExecContext(ctx, query, result.ID, gen+1, fitness); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetTimetableResult(id int64) (*domain.TimetableResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			tr.domain_config_id,
			tr.fitness,
			tr.initial_fitness,
			tr.population_size,
			tr.max_generations,
			tr.crossover_rate,
			tr.mutation_rate,
			tr.elite_count,
			tr.seed,
			tr.job_id,
			tr.created_at,
			dc.classes,
			dc.days,
			dc.lessons
		FROM timetable_results tr
		JOIN domain_configs dc ON tr.domain_config_id = dc.id
		WHERE tr.id = $1
	`

	result := &domain.TimetableResult{
		ID: id,
	}
	var classes, days, lessons int32
	var jobID sql.NullString

	dst := []any{
		&result.DomainConfigID,
		&result.Fitness,
		&result.InitialFitness,
		&result.PopulationSize,
		&result.MaxGenerations,
		&result.CrossoverRate,
		&result.MutationRate,
		&result.EliteCount,
		&result.Seed,
		&jobID,
		&result.CreatedAt,
		&classes,
		&days,
		&lessons,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	if jobID.Valid {
		result.JobID = &jobID.String
	}

	// 先按配置中的尺寸分配好整个课表
	result.Grid = make(domain.TimetableGrid, classes)
	for c := range result.Grid {
		result.Grid[c] = make([][]domain.Lesson, days)
		for d := range result.Grid[c] {
			result.Grid[c][d] = make([]domain.Lesson, lessons)
		}
	}

	query = `
		SELECT class_index, day_index, lesson_index, subject, teacher, room
		FROM timetable_result_lessons
		WHERE result_id = $1
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c, d, l int
		var lesson domain.Lesson
		if err := rows.Scan(&c, &d, &l, &lesson.Subject, &lesson.Teacher, &lesson.Room); err != nil {
			return nil, err
		}

		// 配置在生成之后被修改过时，尺寸可能对不上，多出来的格子直接忽略
		if c >= len(result.Grid) || d >= len(result.Grid[c]) || l >= len(result.Grid[c][d]) {
			continue
		}
		result.Grid[c][d][l] = lesson
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = `
		SELECT fitness
		FROM timetable_result_fitness_history
		WHERE result_id = $1
		ORDER BY generation
	`

	historyRows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer historyRows.Close()

	result.FitnessHistory = make([]int, 0, result.MaxGenerations)
	for historyRows.Next() {
		var fitness int
		if err := historyRows.Scan(&fitness); err != nil {
			return nil, err
		}
		result.FitnessHistory = append(result.FitnessHistory, fitness)
	}

	if err := historyRows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// GetTimetableResultByJobID 查找某个异步任务已经写入的结果，没有时返回 sql.ErrNoRows
func (r *Repository) GetTimetableResultByJobID(jobID string) (*domain.TimetableResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT id FROM timetable_results WHERE job_id = $1`

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, query, jobID).Scan(&id); err != nil {
		return nil, err
	}

	return r.GetTimetableResult(id)
}

func (r *Repository) GetTimetableResultsByDomainConfigID(domainConfigID int64) ([]*domain.TimetableResultMeta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, fitness, initial_fitness, max_generations, seed, created_at
		FROM timetable_results
		WHERE domain_config_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query, domainConfigID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metas := make([]*domain.TimetableResultMeta, 0)
	for rows.Next() {
		meta := &domain.TimetableResultMeta{
			DomainConfigID: domainConfigID,
		}
		dst := []any{&meta.ID, &meta.Fitness, &meta.InitialFitness, &meta.MaxGenerations, &meta.Seed, &meta.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metas, nil
}

func (r *Repository) DeleteTimetableResult(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `DELETE FROM timetable_results WHERE id = $1`

	res, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
