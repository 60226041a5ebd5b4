package handler

import (
	"net/http"

	"pyra-drive/internal/model"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetTelegramConfig retrieves the Telegram bot token and Web App URL. Missing
// keys mean the bot is simply not configured yet.
func GetTelegramConfig(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"bot_token":   store.ConfigValue(db, model.ConfigKeyTelegramBotToken),
			"web_app_url": store.ConfigValue(db, model.ConfigKeyTelegramWebAppURL),
		})
	}
}

// UpdateTelegramConfig stores the Telegram bot token and Web App URL. The bot
// picks the new token up on the next restart.
func UpdateTelegramConfig(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			BotToken  string `json:"bot_token"`
			WebAppURL string `json:"web_app_url"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := store.SetConfigValue(db, model.ConfigKeyTelegramBotToken, input.BotToken); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update Telegram Bot Token"})
			return
		}
		if err := store.SetConfigValue(db, model.ConfigKeyTelegramWebAppURL, input.WebAppURL); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update Telegram Web App URL"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Telegram configuration updated successfully"})
	}
}
