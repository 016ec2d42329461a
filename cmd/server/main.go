package main

import (
	"log"

	"socialflow/internal/api"
	"socialflow/internal/config"
	"socialflow/internal/connector"
	"socialflow/internal/database"
	"socialflow/internal/inbox"
	"socialflow/internal/publish"
	"socialflow/internal/queue"
	"socialflow/internal/state"
	"socialflow/internal/webhook"
	"socialflow/internal/whatsapp"
	"socialflow/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	cfg := config.LoadConfig()
	database.InitGorm(cfg)
	database.SyncConfig(cfg)
	db := database.GormDB

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	hub := ws.NewHub()
	go hub.Run()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asynqClient.Close()

	whatsappClient := whatsapp.NewClient(cfg)
	connectorClient := connector.NewClient(cfg)
	inboxService := inbox.NewService(db, whatsappClient)
	publishService := publish.NewService(db, connectorClient, queue.NewClient(asynqClient), hub)

	localStore := state.NewLocalStore(db)
	authProvider := state.NewAuthProvider(localStore)
	orgProvider := state.NewOrganizationProvider(db, localStore)
	brandProvider := state.NewBrandProvider(db, localStore, orgProvider)
	notificationProvider := state.NewNotificationProvider(db)
	if user := authProvider.CurrentUser(); user != nil {
		notificationProvider.Start(user.ID)
	}
	defer notificationProvider.Stop()

	webhookHandler := webhook.NewHandler(cfg, db, inboxService, hub)
	publishHandler := api.NewPublishHandler(publishService)
	contactHandler := api.NewContactHandler(db, inboxService)
	whatsappHandler := api.NewWhatsAppHandler(whatsappClient, inboxService, cfg, db)
	channelHandler := api.NewChannelHandler(db)
	sessionHandler := api.NewSessionHandler(authProvider, orgProvider, brandProvider, notificationProvider)

	// Webhook Routes
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleEvent)

	// Dashboard event stream
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	apiGroup := r.Group("/api")
	{
		// Session / Tenant Routes
		apiGroup.GET("/session", sessionHandler.GetSession)
		apiGroup.POST("/session/login", sessionHandler.Login)
		apiGroup.POST("/session/logout", sessionHandler.Logout)
		apiGroup.GET("/organizations", sessionHandler.GetOrganizations)
		apiGroup.POST("/organizations", api.RequirePermission(authProvider, state.PermManageOrganization), sessionHandler.CreateOrganization)
		apiGroup.POST("/organizations/:id/select", sessionHandler.SelectOrganization)
		apiGroup.GET("/brands", sessionHandler.GetBrands)
		apiGroup.POST("/brands", api.RequirePermission(authProvider, state.PermManageBrands), sessionHandler.CreateBrand)
		apiGroup.POST("/brands/:id/select", sessionHandler.SelectBrand)
		apiGroup.GET("/notifications", sessionHandler.GetNotifications)
		apiGroup.POST("/notifications/:id/read", sessionHandler.MarkNotificationRead)

		// Channel Routes
		manageChannels := api.RequirePermission(authProvider, state.PermManageChannels)
		apiGroup.GET("/channels", channelHandler.GetChannels)
		apiGroup.POST("/channels", manageChannels, channelHandler.ConnectChannel)
		apiGroup.PUT("/channels/:id/status", manageChannels, channelHandler.UpdateChannelStatus)
		apiGroup.DELETE("/channels/:id", manageChannels, channelHandler.DisconnectChannel)

		// Bulk Publish Routes
		publishPosts := api.RequirePermission(authProvider, state.PermPublishPosts)
		apiGroup.GET("/bulk-publish/available-channels", publishHandler.GetAvailableChannels)
		apiGroup.POST("/bulk-publish", publishPosts, publishHandler.SubmitBulkPublish)
		apiGroup.GET("/bulk-publish/:postId/status", publishHandler.GetBulkPublishStatus)
		apiGroup.POST("/bulk-publish/:postId/cancel", publishPosts, publishHandler.CancelBulkPublish)

		// WhatsApp Routes
		whatsappGroup := apiGroup.Group("/whatsapp")
		{
			manageContacts := api.RequirePermission(authProvider, state.PermManageContacts)
			whatsappGroup.GET("/contacts", contactHandler.GetContacts)
			whatsappGroup.POST("/contacts", manageContacts, contactHandler.CreateContact)
			whatsappGroup.PUT("/contacts/:id", manageContacts, contactHandler.UpdateContact)
			whatsappGroup.DELETE("/contacts/:id", manageContacts, contactHandler.DeleteContact)
			whatsappGroup.GET("/contacts/export", contactHandler.ExportContacts)

			sendMessages := api.RequirePermission(authProvider, state.PermSendMessages)
			whatsappGroup.POST("/send-text", sendMessages, whatsappHandler.SendText)
			whatsappGroup.POST("/send-template", sendMessages, whatsappHandler.SendTemplate)
			whatsappGroup.POST("/send-media", sendMessages, whatsappHandler.SendMedia)
			whatsappGroup.GET("/messages", whatsappHandler.GetMessages)
			whatsappGroup.GET("/messages/last", whatsappHandler.GetLastMessages)

			manageTemplates := api.RequirePermission(authProvider, state.PermManageTemplates)
			whatsappGroup.GET("/templates", whatsappHandler.GetTemplates)
			whatsappGroup.POST("/templates/sync", manageTemplates, whatsappHandler.SyncTemplates)
			whatsappGroup.POST("/templates", manageTemplates, whatsappHandler.CreateTemplate)
			whatsappGroup.DELETE("/templates", manageTemplates, whatsappHandler.DeleteTemplate)

			whatsappGroup.POST("/media", whatsappHandler.UploadMedia)
			whatsappGroup.GET("/media/:id", whatsappHandler.RetrieveMediaURL)
		}
	}

	// Bulk publish worker
	worker := queue.NewWorker(publishService)
	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{Concurrency: 5},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTypeBulkPublish, worker.HandleBulkPublishTask)
	go func() {
		if err := asynqServer.Run(mux); err != nil {
			log.Fatalf("Failed to run worker: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
