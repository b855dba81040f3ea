package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voting-app/votingapp/internal/entity"
	"github.com/voting-app/votingapp/internal/middleware"
	"github.com/voting-app/votingapp/internal/services/voting"
)

type PollHandler struct {
	votingService *voting.Voting
}

type CreatePollRequest struct {
	Question          string     `json:"question" binding:"required"`
	Options           []string   `json:"options" binding:"required,min=2,dive,required"`
	EndTime           *time.Time `json:"dateTimeEnd"`
	AllowMultipleVote bool       `json:"allowMultipleVote"`
}

type VoteRequest struct {
	PollID      string `json:"pollId"`
	OptionIndex int    `json:"optionIndex"`
}

func NewPollHandler(votingService *voting.Voting) *PollHandler {
	return &PollHandler{votingService: votingService}
}

func (h *PollHandler) CreatePoll(c *gin.Context) {
	var req CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	options := make([]entity.Option, 0, len(req.Options))
	for _, label := range req.Options {
		options = append(options, entity.Option{Label: label})
	}

	poll := entity.Poll{
		Question:          req.Question,
		Options:           options,
		EndTime:           req.EndTime,
		AllowMultipleVote: req.AllowMultipleVote,
	}

	created, err := h.votingService.CreatePoll(c.Request.Context(), poll, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, created)
}

// GetPolls lists the polls still open to the caller, filtered by the search
// query parameter.
func (h *PollHandler) GetPolls(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	polls, err := h.votingService.AvailableFor(c.Request.Context(), username, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, polls)
}

func (h *PollHandler) GetPollsDone(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	polls, err := h.votingService.CompletedBy(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, polls)
}

func (h *PollHandler) GetMyPolls(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	polls, err := h.votingService.OwnedBy(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, polls)
}

func (h *PollHandler) GetPollByID(c *gin.Context) {
	poll, err := h.votingService.PollByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, voting.ErrPollNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": voting.ErrPollNotFound.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, poll)
}

func (h *PollHandler) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	username, ok := middleware.Username(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	err := h.votingService.Vote(c.Request.Context(), req.PollID, req.OptionIndex, username)
	if err != nil {
		switch {
		case errors.Is(err, voting.ErrAlreadyVoted):
			c.JSON(http.StatusBadRequest, gin.H{"error": voting.ErrAlreadyVoted.Error()})
		case errors.Is(err, voting.ErrPollIDRequired), errors.Is(err, voting.ErrPollNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": voting.ErrPollNotFound.Error()})
		case errors.Is(err, voting.ErrOptionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": voting.ErrOptionNotFound.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
