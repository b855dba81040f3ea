package inmemory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/voting-app/votingapp/internal/entity"
	"github.com/voting-app/votingapp/internal/storage"
)

// Storage keeps users and polls in maps behind a single mutex. It implements
// the same interfaces as the postgres store and backs the test suites.
type Storage struct {
	mu         sync.RWMutex
	users      map[string]entity.User
	nextUserID int64
	polls      map[string]entity.Poll
	pollOrder  []string
}

func New() *Storage {
	return &Storage{
		users: make(map[string]entity.User),
		polls: make(map[string]entity.Poll),
	}
}

func (s *Storage) SaveUser(ctx context.Context, username, email string, passHash []byte) (int64, error) {
	const op = "storage.inmemory.SaveUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	for _, user := range s.users {
		if user.Email == email {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
		}
	}

	s.nextUserID++
	s.users[username] = entity.User{
		ID:       s.nextUserID,
		Username: username,
		Email:    email,
		PassHash: passHash,
	}

	return s.nextUserID, nil
}

func (s *Storage) User(ctx context.Context, username string) (entity.User, error) {
	const op = "storage.inmemory.User"

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return entity.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return user, nil
}

func (s *Storage) UserExists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[username]
	return ok, nil
}

func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) SavePoll(ctx context.Context, poll entity.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[poll.ID]; !ok {
		s.pollOrder = append(s.pollOrder, poll.ID)
	}
	s.polls[poll.ID] = clonePoll(poll)

	return nil
}

func (s *Storage) Poll(ctx context.Context, id string) (entity.Poll, error) {
	const op = "storage.inmemory.Poll"

	s.mu.RLock()
	defer s.mu.RUnlock()

	poll, ok := s.polls[id]
	if !ok {
		return entity.Poll{}, fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}

	return clonePoll(poll), nil
}

func (s *Storage) Polls(ctx context.Context) ([]entity.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	polls := make([]entity.Poll, 0, len(s.pollOrder))
	for _, id := range s.pollOrder {
		polls = append(polls, clonePoll(s.polls[id]))
	}

	return polls, nil
}

func (s *Storage) SearchPolls(ctx context.Context, term string) ([]entity.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(term)

	var polls []entity.Poll
	for _, id := range s.pollOrder {
		poll := s.polls[id]
		if strings.Contains(strings.ToLower(poll.Question), term) {
			polls = append(polls, clonePoll(poll))
		}
	}

	return polls, nil
}

func (s *Storage) PollsByOwner(ctx context.Context, owner string) ([]entity.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var polls []entity.Poll
	for _, id := range s.pollOrder {
		poll := s.polls[id]
		if poll.Owner == owner {
			polls = append(polls, clonePoll(poll))
		}
	}

	return polls, nil
}

// CastVote holds the store lock for the whole read-check-write sequence, so
// two racing votes on the same poll cannot both pass the duplicate check.
func (s *Storage) CastVote(ctx context.Context, pollID string, optionIndex int, username string) error {
	const op = "storage.inmemory.CastVote"

	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[pollID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrPollNotFound)
	}

	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return fmt.Errorf("%s: %w", op, storage.ErrOptionNotFound)
	}

	if slices.Contains(poll.VotedUsernames, username) {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyVoted)
	}

	poll = clonePoll(poll)
	poll.Options[optionIndex].VoteCount++
	poll.VotedUsernames = append(poll.VotedUsernames, username)
	s.polls[pollID] = poll

	return nil
}

func clonePoll(poll entity.Poll) entity.Poll {
	poll.Options = slices.Clone(poll.Options)
	poll.VotedUsernames = slices.Clone(poll.VotedUsernames)
	return poll
}
