package store

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/jackc/pgx/v5"

	"github.com/trivia-api-service/internal/model"
)

func (p *Postgres) CountClues(ctx context.Context, r ClueRange) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM clues
		WHERE ($1 = 0 OR id >= $1) AND ($2 = 0 OR id <= $2)
	`, r.StartID, r.EndID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count clues: %w", err)
	}
	return count, nil
}

func (p *Postgres) PageClues(ctx context.Context, after int64, r ClueRange, limit int) ([]*model.Clue, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, category, question, answer, created_at
		FROM clues
		WHERE id > $1 AND ($2 = 0 OR id <= $2)
		ORDER BY id ASC
		LIMIT $3
	`, after, r.EndID, limit)
	if err != nil {
		return nil, fmt.Errorf("page clues: %w", err)
	}
	defer rows.Close()

	var clues []*model.Clue
	for rows.Next() {
		var clue model.Clue
		if err := rows.Scan(&clue.ID, &clue.Category, &clue.Question, &clue.Answer, &clue.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan clue: %w", err)
		}
		clues = append(clues, &clue)
	}
	return clues, rows.Err()
}

const triviaColumns = `t.id, t.clue_id, t.question, t.correct_answer,
	t.wrong_answer_1, t.wrong_answer_2, t.wrong_answer_3, t.model, t.created_at,
	c.id, c.category, c.question, c.answer, c.created_at`

const triviaFrom = ` FROM trivia_questions t JOIN clues c ON c.id = t.clue_id `

func (p *Postgres) FindTriviaByClue(ctx context.Context, clueID int64) (*model.TriviaQuestion, error) {
	q, err := p.scanTrivia(ctx, `SELECT `+triviaColumns+triviaFrom+`WHERE t.clue_id = $1 ORDER BY t.id ASC LIMIT 1`, clueID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return q, err
}

func (p *Postgres) CreateTrivia(ctx context.Context, q *model.TriviaQuestion) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO trivia_questions (
			clue_id, question, correct_answer,
			wrong_answer_1, wrong_answer_2, wrong_answer_3, model
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`,
		q.ClueID, q.Question, q.CorrectAnswer,
		q.WrongAnswers[0], q.WrongAnswers[1], q.WrongAnswers[2], q.Model,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert trivia_question: %w", err)
	}
	return nil
}

func (p *Postgres) GetTriviaByID(ctx context.Context, id int64) (*model.TriviaQuestion, error) {
	return p.scanTrivia(ctx, `SELECT `+triviaColumns+triviaFrom+`WHERE t.id = $1`, id)
}

func (p *Postgres) RandomTrivia(ctx context.Context, category string) (*model.TriviaQuestion, error) {
	var total int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)`+triviaFrom+`WHERE $1 = '' OR c.category ILIKE '%' || $1 || '%'
	`, category).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count trivia_questions: %w", err)
	}
	if total == 0 {
		return nil, pgx.ErrNoRows
	}

	offset := rand.Int63n(total)
	return p.scanTrivia(ctx, `
		SELECT `+triviaColumns+triviaFrom+`
		WHERE $1 = '' OR c.category ILIKE '%' || $1 || '%'
		ORDER BY t.id ASC
		OFFSET $2 LIMIT 1
	`, category, offset)
}

func (p *Postgres) TriviaByCategory(ctx context.Context, category string, limit, offset int) ([]*model.TriviaQuestion, int64, error) {
	where := `WHERE c.category ILIKE '%' || $1 || '%'`

	var total int64
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*)`+triviaFrom+where, category).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count trivia by category: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+triviaColumns+triviaFrom+where+`
		ORDER BY t.id ASC
		LIMIT $2 OFFSET $3
	`, category, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list trivia by category: %w", err)
	}
	defer rows.Close()

	questions, err := collectTrivia(rows)
	return questions, total, err
}

func (p *Postgres) SearchTrivia(ctx context.Context, query string, limit, offset int) ([]*model.TriviaQuestion, int64, error) {
	where := `WHERE t.question ILIKE '%' || $1 || '%'
		OR t.correct_answer ILIKE '%' || $1 || '%'
		OR c.question ILIKE '%' || $1 || '%'
		OR c.answer ILIKE '%' || $1 || '%'
		OR c.category ILIKE '%' || $1 || '%'`

	var total int64
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*)`+triviaFrom+where, query).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count trivia search: %w", err)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+triviaColumns+triviaFrom+where+`
		ORDER BY t.id ASC
		LIMIT $2 OFFSET $3
	`, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("search trivia: %w", err)
	}
	defer rows.Close()

	questions, err := collectTrivia(rows)
	return questions, total, err
}

func (p *Postgres) ListCategories(ctx context.Context) ([]CategoryCount, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT c.category, COUNT(t.id)
		FROM clues c
		JOIN trivia_questions t ON t.clue_id = c.id
		GROUP BY c.category
		ORDER BY c.category ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		categories = append(categories, cc)
	}
	return categories, rows.Err()
}

func (p *Postgres) CountTrivia(ctx context.Context) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trivia_questions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trivia_questions: %w", err)
	}
	return count, nil
}

func (p *Postgres) scanTrivia(ctx context.Context, query string, args ...interface{}) (*model.TriviaQuestion, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trivia_question: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, pgx.ErrNoRows
	}
	return scanTriviaFromRow(rows)
}

func collectTrivia(rows pgx.Rows) ([]*model.TriviaQuestion, error) {
	var questions []*model.TriviaQuestion
	for rows.Next() {
		q, err := scanTriviaFromRow(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func scanTriviaFromRow(rows pgx.Rows) (*model.TriviaQuestion, error) {
	var q model.TriviaQuestion
	var clue model.Clue

	err := rows.Scan(
		&q.ID, &q.ClueID, &q.Question, &q.CorrectAnswer,
		&q.WrongAnswers[0], &q.WrongAnswers[1], &q.WrongAnswers[2], &q.Model, &q.CreatedAt,
		&clue.ID, &clue.Category, &clue.Question, &clue.Answer, &clue.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan trivia_question: %w", err)
	}

	q.Clue = &clue
	return &q, nil
}
