package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/voting-app/votingapp/internal/handlers"
)

func RegisterPublicRoutes(rg *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	{
		rg.POST("/user/register", authHandler.Register)
		rg.POST("/user/login", authHandler.Login)
	}
}

func RegisterPrivateRoutes(rg *gin.RouterGroup, pollHandler *handlers.PollHandler) {
	{
		rg.POST("/polls", pollHandler.CreatePoll)
		rg.GET("/polls", pollHandler.GetPolls)
		rg.GET("/polls/done", pollHandler.GetPollsDone)
		rg.GET("/polls/mypolls", pollHandler.GetMyPolls)
		rg.GET("/polls/:id", pollHandler.GetPollByID)
		rg.POST("/polls/vote", pollHandler.Vote)
	}
}
