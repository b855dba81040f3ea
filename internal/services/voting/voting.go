package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/voting-app/votingapp/internal/entity"
	"github.com/voting-app/votingapp/internal/lib/logger/sl"
	"github.com/voting-app/votingapp/internal/storage"
)

var (
	ErrPollIDRequired = errors.New("poll id is required")
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrAlreadyVoted   = errors.New("you already voted")
)

const (
	searchByIDPrefix    = "ID:"
	searchByOwnerPrefix = "OWNER:"
)

type Voting struct {
	log         *slog.Logger
	pollStorage PollStorage
}

type PollStorage interface {
	SavePoll(ctx context.Context, poll entity.Poll) error
	Poll(ctx context.Context, id string) (entity.Poll, error)
	Polls(ctx context.Context) ([]entity.Poll, error)
	SearchPolls(ctx context.Context, term string) ([]entity.Poll, error)
	PollsByOwner(ctx context.Context, owner string) ([]entity.Poll, error)
	CastVote(ctx context.Context, pollID string, optionIndex int, username string) error
}

func NewVoting(log *slog.Logger, pollStorage PollStorage) *Voting {
	return &Voting{
		log:         log,
		pollStorage: pollStorage,
	}
}

// CreatePoll persists a new poll for owner. The id is generated here and any
// client-supplied counts or voted usernames are discarded.
func (v *Voting) CreatePoll(ctx context.Context, poll entity.Poll, owner string) (entity.Poll, error) {
	const op = "voting.CreatePoll"

	log := v.log.With(slog.String("op", op), slog.String("owner", owner))

	poll.ID = uuid.NewString()
	poll.Owner = owner
	poll.VotedUsernames = []string{}
	poll.Disabled = false
	for i := range poll.Options {
		poll.Options[i].VoteCount = 0
	}

	if err := v.pollStorage.SavePoll(ctx, poll); err != nil {
		log.Error("failed to save poll", sl.Err(err))
		return entity.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("poll created", slog.String("pollID", poll.ID))

	return poll, nil
}

// Vote records a single vote by username on the given poll option.
// Failure order: empty poll id, missing poll, bad option index, duplicate
// voter. The count increment and the voted-set append are persisted as one
// atomic store update.
func (v *Voting) Vote(ctx context.Context, pollID string, optionIndex int, username string) error {
	const op = "voting.Vote"

	log := v.log.With(slog.String("op", op), slog.String("pollID", pollID), slog.String("username", username))

	if pollID == "" {
		return fmt.Errorf("%s: %w", op, ErrPollIDRequired)
	}

	if err := v.pollStorage.CastVote(ctx, pollID, optionIndex, username); err != nil {
		switch {
		case errors.Is(err, storage.ErrPollNotFound):
			return fmt.Errorf("%s: %w", op, ErrPollNotFound)
		case errors.Is(err, storage.ErrOptionNotFound):
			return fmt.Errorf("%s: %w", op, ErrOptionNotFound)
		case errors.Is(err, storage.ErrAlreadyVoted):
			return fmt.Errorf("%s: %w", op, ErrAlreadyVoted)
		}
		log.Error("failed to cast vote", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("vote recorded", slog.Int("optionIndex", optionIndex))

	return nil
}

// Search resolves a search term the way the poll list expects it: an "ID:"
// prefix looks a single poll up by identifier, an "OWNER:" prefix lists an
// owner's polls, anything else is a case-insensitive substring match on the
// question. An empty term matches all polls.
func (v *Voting) Search(ctx context.Context, term string) ([]entity.Poll, error) {
	const op = "voting.Search"

	switch {
	case strings.HasPrefix(term, searchByIDPrefix):
		poll, err := v.pollStorage.Poll(ctx, strings.TrimPrefix(term, searchByIDPrefix))
		if err != nil {
			if errors.Is(err, storage.ErrPollNotFound) {
				return []entity.Poll{}, nil
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return []entity.Poll{poll}, nil
	case strings.HasPrefix(term, searchByOwnerPrefix):
		polls, err := v.pollStorage.PollsByOwner(ctx, strings.TrimPrefix(term, searchByOwnerPrefix))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return polls, nil
	default:
		polls, err := v.pollStorage.SearchPolls(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return polls, nil
	}
}

// AvailableFor is the Search result with polls the viewer already voted on
// removed.
func (v *Voting) AvailableFor(ctx context.Context, viewer, term string) ([]entity.Poll, error) {
	const op = "voting.AvailableFor"

	polls, err := v.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	available := make([]entity.Poll, 0, len(polls))
	for _, poll := range polls {
		if !slices.Contains(poll.VotedUsernames, viewer) {
			available = append(available, poll)
		}
	}

	return available, nil
}

// CompletedBy lists the polls the viewer already voted on.
func (v *Voting) CompletedBy(ctx context.Context, viewer string) ([]entity.Poll, error) {
	const op = "voting.CompletedBy"

	polls, err := v.pollStorage.Polls(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	completed := make([]entity.Poll, 0, len(polls))
	for _, poll := range polls {
		if slices.Contains(poll.VotedUsernames, viewer) {
			completed = append(completed, poll)
		}
	}

	return completed, nil
}

// OwnedBy lists the owner's polls. Disabled marks the polls the owner voted
// on themselves; it is informational only.
func (v *Voting) OwnedBy(ctx context.Context, owner string) ([]entity.Poll, error) {
	const op = "voting.OwnedBy"

	polls, err := v.pollStorage.PollsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range polls {
		polls[i].Disabled = slices.Contains(polls[i].VotedUsernames, owner)
	}

	return polls, nil
}

// PollByID returns a single poll.
func (v *Voting) PollByID(ctx context.Context, id string) (entity.Poll, error) {
	const op = "voting.PollByID"

	poll, err := v.pollStorage.Poll(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPollNotFound) {
			return entity.Poll{}, fmt.Errorf("%s: %w", op, ErrPollNotFound)
		}
		return entity.Poll{}, fmt.Errorf("%s: %w", op, err)
	}

	return poll, nil
}
