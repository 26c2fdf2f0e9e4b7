package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Lee_Social/internal/handler"
	"Lee_Social/internal/middleware"
)

// Deps 路由依赖，由 cmd/api 组装
type Deps struct {
	Responder handler.Responder
	Verifier  middleware.Verifier
	User      *handler.UserHandler
	Email     *handler.EmailHandler
	Follow    *handler.FollowHandler
	Friend    *handler.FriendHandler
	Block     *handler.BlockHandler
	// Ready 健康检查，为空时总是返回 ok
	Ready func(ctx context.Context) error
}

func InitRouter(d Deps) *gin.Engine {
	handler.SetupValidator()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.AuthMiddleware(d.Verifier, d.Responder.Fail)
	api := r.Group("/api")

	// 邮件相关接口
	emailGroup := api.Group("/email")
	{
		emailGroup.POST("/:scope/code", d.Email.SendCode)
	}

	// 用户相关接口
	userGroup := api.Group("/user")
	{
		userGroup.POST("/register", d.User.Register)
		userGroup.POST("/login", d.User.Login)
		userGroup.POST("/reset", d.User.ResetPassword)
	}

	// token相关接口
	tokenGroup := api.Group("/token")
	{
		tokenGroup.POST("/refresh", d.User.TokenRefresh)
	}

	// 登录态接口
	authUserGroup := api.Group("/user", auth)
	{
		authUserGroup.POST("/logout", d.User.Logout)
		authUserGroup.POST("/change-password", d.User.ChangePassword)
		authUserGroup.PUT("/privacy", d.User.SetPrivacy)
	}

	usersGroup := api.Group("/users", auth)
	{
		usersGroup.GET("/:id", d.User.Profile)
		usersGroup.GET("/:id/followers", d.Follow.ListFollowers)
		usersGroup.GET("/:id/following", d.Follow.ListFollowing)
	}

	// 用户关注相关接口
	followReqGroup := api.Group("/follow-requests", auth)
	{
		followReqGroup.POST("", d.Follow.RequestFollow)
		followReqGroup.POST("/:requesterId/accept", d.Follow.Accept)
		followReqGroup.POST("/:requesterId/reject", d.Follow.Reject)
		followReqGroup.DELETE("/:targetId", d.Follow.Cancel)
		followReqGroup.GET("/pending", d.Follow.PendingRequests)
		followReqGroup.GET("/sent", d.Follow.SentRequests)
	}

	followGroup := api.Group("/follow", auth)
	{
		followGroup.DELETE("/:targetId", d.Follow.Unfollow)
		followGroup.GET("/relation", d.Follow.Relation)
	}

	// 好友相关接口
	friendReqGroup := api.Group("/friend-requests", auth)
	{
		friendReqGroup.POST("", d.Friend.Send)
		friendReqGroup.POST("/:id/respond", d.Friend.Respond)
		friendReqGroup.DELETE("/:id", d.Friend.Cancel)
		friendReqGroup.GET("/pending", d.Friend.PendingRequests)
		friendReqGroup.GET("/sent", d.Friend.SentRequests)
	}

	friendGroup := api.Group("/friends", auth)
	{
		friendGroup.GET("", d.Friend.ListFriends)
		friendGroup.POST("/unfriend", d.Friend.Unfriend)
	}

	// 拉黑相关接口
	blockGroup := api.Group("/block", auth)
	{
		blockGroup.POST("", d.Block.Block)
		blockGroup.DELETE("/:targetId", d.Block.Unblock)
		blockGroup.GET("/list", d.Block.List)
	}

	return r
}
