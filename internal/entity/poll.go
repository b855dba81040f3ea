package entity

import "time"

type Option struct {
	Label     string `json:"voteOption"`
	VoteCount int64  `json:"voteCount"`
}

type Poll struct {
	ID                string     `json:"id"`
	Question          string     `json:"question"`
	Options           []Option   `json:"options"`
	EndTime           *time.Time `json:"dateTimeEnd,omitempty"`
	AllowMultipleVote bool       `json:"allowMultipleVote"`
	VotedUsernames    []string   `json:"usernames"`
	Owner             string     `json:"owner"`

	// Disabled is a per-viewer projection, never persisted: true when the
	// viewer already voted on this poll.
	Disabled bool `json:"disabled"`
}
