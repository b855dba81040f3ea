package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	_ "github.com/lib/pq"

	"github.com/voting-app/votingapp/internal/entity"
	"github.com/voting-app/votingapp/internal/storage"
)

type Storage struct {
	db *sql.DB
}

func New(postgresURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) SaveUser(ctx context.Context, username, email string, passHash []byte) (int64, error) {
	const op = "storage.postgres.SaveUser"

	query := `INSERT INTO users(username, email, pass_hash) VALUES($1, $2, $3) RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query, username, email, passHash).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_email_key" {
				return 0, fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
			}
			return 0, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) User(ctx context.Context, username string) (entity.User, error) {
	const op = "storage.postgres.User"

	query := `SELECT id, username, email, pass_hash FROM users WHERE username = $1`

	var user entity.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.Email, &user.PassHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return entity.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserExists(ctx context.Context, username string) (bool, error) {
	const op = "storage.postgres.UserExists"

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.postgres.EmailExists"

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (s *Storage) SavePoll(ctx context.Context, poll entity.Poll) error {
	const op = "storage.postgres.SavePoll"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO polls(id, question, end_time, allow_multiple_vote, owner) VALUES($1, $2, $3, $4, $5)`,
		poll.ID, poll.Question, poll.EndTime, poll.AllowMultipleVote, poll.Owner)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for idx, option := range poll.Options {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO poll_options(poll_id, idx, label, vote_count) VALUES($1, $2, $3, $4)`,
			poll.ID, idx, option.Label, option.VoteCount)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Poll(ctx context.Context, id string) (entity.Poll, error) {
	const op = "storage.postgres.Poll"

	query := `SELECT id, question, end_time, allow_multiple_vote, owner FROM polls WHERE id = $1`

	var poll entity.Poll
	err := s.db.QueryRowContext(ctx, query, id).Scan(&poll.ID, &poll.Question, &poll.EndTime, &poll.AllowMultipleVote, &poll.Owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
		}
		return entity.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.loadPollDetails(ctx, &poll); err != nil {
		return entity.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	return poll, nil
}

func (s *Storage) Polls(ctx context.Context) ([]entity.Poll, error) {
	const op = "storage.postgres.Polls"

	polls, err := s.queryPolls(ctx, `SELECT id, question, end_time, allow_multiple_vote, owner FROM polls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return polls, nil
}

func (s *Storage) SearchPolls(ctx context.Context, term string) ([]entity.Poll, error) {
	const op = "storage.postgres.SearchPolls"

	polls, err := s.queryPolls(ctx,
		`SELECT id, question, end_time, allow_multiple_vote, owner FROM polls WHERE question ILIKE '%' || $1 || '%' ORDER BY id`,
		term)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return polls, nil
}

func (s *Storage) PollsByOwner(ctx context.Context, owner string) ([]entity.Poll, error) {
	const op = "storage.postgres.PollsByOwner"

	polls, err := s.queryPolls(ctx,
		`SELECT id, question, end_time, allow_multiple_vote, owner FROM polls WHERE owner = $1 ORDER BY id`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return polls, nil
}

// CastVote applies the vote in a single transaction. The poll row is locked
// with FOR UPDATE, so the duplicate-vote check and the two mutations either
// commit together or not at all; racing voters on the same poll serialize
// here.
func (s *Storage) CastVote(ctx context.Context, pollID string, optionIndex int, username string) error {
	const op = "storage.postgres.CastVote"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM polls WHERE id = $1 FOR UPDATE`, pollID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var optionExists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM poll_options WHERE poll_id = $1 AND idx = $2)`,
		pollID, optionIndex).Scan(&optionExists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !optionExists {
		return fmt.Errorf("%s: %w", op, storage.ErrOptionNotFound)
	}

	var alreadyVoted bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM poll_votes WHERE poll_id = $1 AND username = $2)`,
		pollID, username).Scan(&alreadyVoted)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if alreadyVoted {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyVoted)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE poll_options SET vote_count = vote_count + 1 WHERE poll_id = $1 AND idx = $2`,
		pollID, optionIndex)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO poll_votes(poll_id, username) VALUES($1, $2)`,
		pollID, username)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyVoted)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) queryPolls(ctx context.Context, query string, args ...any) ([]entity.Poll, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polls []entity.Poll
	for rows.Next() {
		var poll entity.Poll
		if err := rows.Scan(&poll.ID, &poll.Question, &poll.EndTime, &poll.AllowMultipleVote, &poll.Owner); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range polls {
		if err := s.loadPollDetails(ctx, &polls[i]); err != nil {
			return nil, err
		}
	}

	return polls, nil
}

func (s *Storage) loadPollDetails(ctx context.Context, poll *entity.Poll) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, vote_count FROM poll_options WHERE poll_id = $1 ORDER BY idx`, poll.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	poll.Options = []entity.Option{}
	for rows.Next() {
		var option entity.Option
		if err := rows.Scan(&option.Label, &option.VoteCount); err != nil {
			return fmt.Errorf("scan option: %w", err)
		}
		poll.Options = append(poll.Options, option)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	voteRows, err := s.db.QueryContext(ctx,
		`SELECT username FROM poll_votes WHERE poll_id = $1 ORDER BY voted_at`, poll.ID)
	if err != nil {
		return err
	}
	defer voteRows.Close()

	poll.VotedUsernames = []string{}
	for voteRows.Next() {
		var username string
		if err := voteRows.Scan(&username); err != nil {
			return fmt.Errorf("scan vote: %w", err)
		}
		poll.VotedUsernames = append(poll.VotedUsernames, username)
	}

	return voteRows.Err()
}
