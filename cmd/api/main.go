package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"time"

	"pyra-drive/internal/api/handler"
	"pyra-drive/internal/api/middleware"
	"pyra-drive/internal/api/websocket"
	"pyra-drive/internal/authz"
	"pyra-drive/internal/bot"
	"pyra-drive/internal/model"
	"pyra-drive/internal/notify"
	"pyra-drive/internal/session"
	"pyra-drive/internal/sharelink"
	"pyra-drive/internal/storage"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	jwtSecretFile = "data/.sk"
	databaseFile  = "data/pyra.db"
	listenAddr    = ":9090"
	sessionTTL    = 24 * time.Hour
)

func loadOrCreateJWTSecret(log *zap.Logger) string {
	secretBytes, err := os.ReadFile(jwtSecretFile)
	if err != nil {
		if os.IsNotExist(err) {
			newSecret, err := generateRandomString(32)
			if err != nil {
				log.Fatal("failed to generate JWT secret", zap.Error(err))
			}
			if err := os.WriteFile(jwtSecretFile, []byte(newSecret), 0600); err != nil {
				log.Fatal("failed to write JWT secret file", zap.Error(err))
			}
			log.Info("generated new JWT secret", zap.String("file", jwtSecretFile))
			return newSecret
		}
		log.Fatal("failed to read JWT secret file", zap.Error(err))
	}
	return string(secretBytes)
}

func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

type app struct {
	db       *gorm.DB
	log      *zap.Logger
	sessions *session.Manager
	engine   *authz.Engine
	fanout   *authz.Fanout
	bucket   *storage.Client
	hub      *websocket.EventHub
	notifier *notify.Notifier
	ledger   *sharelink.Ledger

	users         *store.Users
	teams         *store.Teams
	overrides     *store.Overrides
	links         *store.ShareLinks
	notifications *store.Notifications
	activity      *store.Activity
	trash         *store.Trash
	reviews       *store.Reviews
}

func (a *app) setupRouter() http.Handler {
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())

	public := router.Group("/api/v1")
	{
		public.POST("/login", handler.Login(a.users, a.sessions, a.activity, a.log))
		public.GET("/share", handler.RedeemShareLink(a.ledger, a.bucket, a.activity))
	}

	auth := router.Group("/api/v1")
	auth.Use(middleware.AuthMiddleware(a.sessions))
	{
		auth.POST("/logout", handler.Logout(a.sessions))
		auth.GET("/session", handler.Me())
		auth.PUT("/users/change-password", handler.ChangePassword(a.users))

		// Files
		auth.GET("/files", handler.ListFiles(a.engine, a.bucket))
		auth.POST("/files/upload", handler.UploadFile(a.engine, a.bucket, a.activity, a.notifier, a.fanout))
		auth.GET("/files/download", handler.DownloadFile(a.engine, a.bucket, a.activity))
		auth.GET("/files/proxy", handler.ProxyFile(a.engine, a.bucket))
		auth.PUT("/files/content", handler.SaveFile(a.engine, a.bucket, a.activity))
		auth.PUT("/files/rename", handler.RenameFile(a.engine, a.bucket, a.reviews, a.activity))
		auth.POST("/files/delete", handler.DeleteFiles(a.engine, a.bucket, a.trash, a.activity, a.notifier, a.fanout))
		auth.POST("/files/folder", handler.CreateFolder(a.engine, a.bucket, a.activity))
		auth.GET("/files/url", handler.FileURL(a.engine, a.bucket))
		auth.GET("/files/search", handler.DeepSearch(a.engine, a.bucket))

		// Effective permissions for the UI
		auth.GET("/permissions/effective", handler.EffectivePermissions(a.engine))

		// Share links
		auth.POST("/shares", handler.CreateShareLink(a.engine, a.links, a.activity))
		auth.GET("/shares", handler.ListShareLinks(a.engine, a.links))
		auth.DELETE("/shares/:id", handler.DeactivateShareLink(a.links, a.activity))

		// Reviews
		auth.POST("/reviews", handler.AddReview(a.engine, a.reviews, a.notifier, a.fanout, a.activity))
		auth.GET("/reviews", handler.ListReviews(a.engine, a.reviews))

		// Notifications
		auth.GET("/notifications", handler.ListNotifications(a.notifications))
		auth.GET("/notifications/unread-count", handler.UnreadNotificationCount(a.notifications))
		auth.PUT("/notifications/:id/read", handler.MarkNotificationRead(a.notifications))
		auth.PUT("/notifications/read-all", handler.MarkAllNotificationsRead(a.notifications))

		// Admin
		admin := auth.Group("")
		admin.Use(middleware.RoleCheck(model.RoleAdmin))
		{
			admin.GET("/users", handler.ListUsers(a.users))
			admin.POST("/users", handler.CreateUser(a.users, a.activity))
			admin.PUT("/users/:username", handler.UpdateUser(a.users, a.sessions, a.activity))
			admin.DELETE("/users/:username", handler.DeleteUser(a.users, a.activity))
			admin.PUT("/users/:username/reset-password", handler.ResetUserPassword(a.users, a.activity))

			admin.GET("/teams", handler.ListTeams(a.teams))
			admin.POST("/teams", handler.CreateTeam(a.teams, a.activity))
			admin.PUT("/teams/:id", handler.UpdateTeam(a.teams, a.activity))
			admin.DELETE("/teams/:id", handler.DeleteTeam(a.teams, a.activity))
			admin.POST("/teams/:id/members", handler.AddTeamMember(a.teams, a.users, a.notifier, a.activity))
			admin.DELETE("/teams/:id/members/:username", handler.RemoveTeamMember(a.teams, a.activity))

			admin.POST("/overrides", handler.SetOverride(a.overrides, a.notifier, a.activity))
			admin.GET("/overrides", handler.ListOverrides(a.overrides))
			admin.DELETE("/overrides/:id", handler.RemoveOverride(a.overrides, a.activity))
			admin.POST("/overrides/sweep", handler.SweepOverrides(a.overrides))

			admin.GET("/reviews/:id/toggle", handler.ToggleReviewResolved(a.reviews))
			admin.DELETE("/reviews/:id", handler.DeleteReview(a.reviews))

			admin.GET("/trash", handler.ListTrash(a.trash))
			admin.POST("/trash/:id/restore", handler.RestoreTrashItem(a.trash, a.bucket, a.activity))
			admin.DELETE("/trash/:id", handler.PurgeTrashItem(a.trash, a.bucket, a.activity))
			admin.POST("/trash/empty", handler.EmptyTrash(a.trash, a.bucket, a.activity))
			admin.POST("/trash/purge-expired", handler.PurgeExpiredTrash(a.trash, a.bucket))

			admin.GET("/activity", handler.ListActivity(a.activity))

			admin.GET("/config/telegram", handler.GetTelegramConfig(a.db))
			admin.PUT("/config/telegram", handler.UpdateTelegramConfig(a.db))
		}
	}

	ws := router.Group("/ws")
	ws.Use(middleware.AuthMiddleware(a.sessions))
	{
		ws.GET("/events", a.hub.Serve)
	}

	return router
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := os.MkdirAll("data", 0755); err != nil {
		log.Fatal("failed to create data directory", zap.Error(err))
	}

	db, err := store.Open(databaseFile)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	if err := store.SeedAdmin(db, "admin123"); err != nil {
		log.Fatal("failed to seed admin user", zap.Error(err))
	}

	a := &app{
		db:            db,
		log:           log,
		users:         store.NewUsers(db),
		teams:         store.NewTeams(db),
		overrides:     store.NewOverrides(db),
		links:         store.NewShareLinks(db),
		notifications: store.NewNotifications(db),
		activity:      store.NewActivity(db),
		trash:         store.NewTrash(db),
		reviews:       store.NewReviews(db),
	}

	a.sessions = session.NewManager(loadOrCreateJWTSecret(log), sessionTTL, log)
	a.engine = authz.NewEngine(a.teams, a.overrides, log)
	a.fanout = authz.NewFanout(a.users, log)
	a.ledger = sharelink.NewLedger(a.links, log)
	a.hub = websocket.NewEventHub(log)

	a.bucket = storage.NewClient(storage.Config{
		BaseURL:    os.Getenv("STORAGE_URL"),
		Bucket:     os.Getenv("STORAGE_BUCKET"),
		ServiceKey: os.Getenv("STORAGE_SERVICE_KEY"),
	}, log)

	var botHandler *bot.BotHandler
	botToken := store.ConfigValue(db, model.ConfigKeyTelegramBotToken)
	if botToken != "" {
		webAppURL := store.ConfigValue(db, model.ConfigKeyTelegramWebAppURL)
		botHandler, err = bot.NewBotHandler(botToken, webAppURL)
		if err != nil {
			log.Fatal("failed to initialize Telegram bot", zap.Error(err))
		}
		go botHandler.Start()
		log.Info("Telegram bot started")
	} else {
		log.Info("Telegram bot token not configured, bot disabled")
	}
	a.notifier = notify.NewNotifier(a.notifications, a.users, a.hub, botHandler, log)

	router := a.setupRouter()
	log.Info("server listening", zap.String("addr", listenAddr))
	if err := http.ListenAndServe(listenAddr, router); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
