package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"taskboard/internal/auth"
	"taskboard/internal/fanout"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/service"
	"taskboard/internal/store"
)

// Deps is everything the HTTP surface is built from.
type Deps struct {
	Service       *service.Service
	Users         store.UserStore
	Notifications store.NotificationLog
	Hub           *fanout.Hub
	Tokens        *auth.Issuer
	Log           zerolog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log))

	userHandler := handler.NewUserHandler(d.Users, d.Tokens)
	workspaceHandler := handler.NewWorkspaceHandler(d.Service)
	boardHandler := handler.NewBoardHandler(d.Service)
	memberHandler := handler.NewMemberHandler(d.Service)
	joinHandler := handler.NewJoinHandler(d.Service)
	listHandler := handler.NewListHandler(d.Service)
	taskHandler := handler.NewTaskHandler(d.Service)
	commentHandler := handler.NewCommentHandler(d.Service)
	attachmentHandler := handler.NewAttachmentHandler(d.Service)
	notificationHandler := handler.NewNotificationHandler(d.Notifications)
	socketHandler := handler.NewSocketHandler(d.Service, d.Hub, d.Log)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(d.Tokens))
	{
		authorized.GET("/ws", socketHandler.Connect)

		authorized.POST("/workspaces", workspaceHandler.Create)
		authorized.GET("/workspaces/:id/members", workspaceHandler.Members)
		authorized.POST("/workspaces/:id/members", workspaceHandler.AddMember)
		authorized.POST("/workspaces/:id/boards", boardHandler.Create)
		authorized.GET("/workspaces/:id/boards", boardHandler.GetAll)

		authorized.GET("/boards/:id", boardHandler.GetByID)
		authorized.PATCH("/boards/:id", boardHandler.Update)
		authorized.DELETE("/boards/:id", boardHandler.Delete)
		authorized.POST("/boards/:id/archive", boardHandler.Archive)
		authorized.POST("/boards/:id/unarchive", boardHandler.Unarchive)

		authorized.GET("/boards/:id/members", memberHandler.GetAll)
		authorized.POST("/boards/:id/members", memberHandler.Add)
		authorized.PATCH("/boards/:id/members/:userId", memberHandler.UpdateRole)
		authorized.DELETE("/boards/:id/members/:userId", memberHandler.Remove)

		authorized.POST("/boards/:id/join-requests", joinHandler.Request)
		authorized.GET("/boards/:id/join-requests", joinHandler.Pending)
		authorized.POST("/join-requests/:id", joinHandler.Respond)

		authorized.GET("/boards/:id/lists", listHandler.GetAll)
		authorized.POST("/boards/:id/lists", listHandler.Create)
		authorized.POST("/boards/:id/lists/reindex", listHandler.Reindex)
		authorized.PATCH("/lists/:id", listHandler.Rename)
		authorized.DELETE("/lists/:id", listHandler.Delete)
		authorized.POST("/lists/:id/move", listHandler.Move)
		authorized.POST("/lists/:id/archive", listHandler.Archive)
		authorized.POST("/lists/:id/unarchive", listHandler.Unarchive)

		authorized.GET("/lists/:id/tasks", taskHandler.GetAll)
		authorized.POST("/lists/:id/tasks", taskHandler.Create)
		authorized.POST("/lists/:id/tasks/reindex", taskHandler.Reindex)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PATCH("/tasks/:id", taskHandler.Edit)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.PUT("/tasks/:id/title", taskHandler.Rename)
		authorized.PUT("/tasks/:id/complete", taskHandler.Complete)
		authorized.POST("/tasks/:id/move", taskHandler.Move)
		authorized.POST("/tasks/:id/archive", taskHandler.Archive)
		authorized.POST("/tasks/:id/unarchive", taskHandler.Unarchive)

		authorized.GET("/tasks/:id/activities", commentHandler.Activities)
		authorized.POST("/tasks/:id/comments", commentHandler.Create)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.POST("/tasks/:id/attachments", attachmentHandler.Upload)
		authorized.GET("/attachments/:id", attachmentHandler.Download)
		authorized.DELETE("/attachments/:id", attachmentHandler.Delete)

		authorized.GET("/notifications", notificationHandler.GetAll)
		authorized.POST("/notifications/read", notificationHandler.MarkRead)
	}
	return r
}
