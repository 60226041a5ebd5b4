package handler

import (
	"errors"
	"fmt"
	"net/http"

	"pyra-drive/internal/model"
	"pyra-drive/internal/notify"
	"pyra-drive/internal/store"

	"github.com/gin-gonic/gin"
)

func ListTeams(teams *store.Teams) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := teams.All()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list teams"})
			return
		}
		c.JSON(http.StatusOK, all)
	}
}

func CreateTeam(teams *store.Teams, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		var input struct {
			Name        string      `json:"name"`
			Description string      `json:"description"`
			Permissions model.Grant `json:"permissions"`
		}
		if err := c.ShouldBindJSON(&input); err != nil || input.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Team name required"})
			return
		}

		team := model.Team{
			Name:        input.Name,
			Description: input.Description,
			CreatedBy:   snap.Username,
			Permissions: input.Permissions,
		}
		if err := teams.Create(&team); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create team"})
			return
		}
		record(activity, c, snap, "team_created", "", map[string]any{"team": team.Name})
		c.JSON(http.StatusCreated, team)
	}
}

func UpdateTeam(teams *store.Teams, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		team, err := teams.ByID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
			return
		}

		var input struct {
			Name        *string      `json:"name"`
			Description *string      `json:"description"`
			Permissions *model.Grant `json:"permissions"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Name != nil {
			team.Name = *input.Name
		}
		if input.Description != nil {
			team.Description = *input.Description
		}
		if input.Permissions != nil {
			team.Permissions = *input.Permissions
		}

		if err := teams.Save(team); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update team"})
			return
		}
		record(activity, c, snap, "team_updated", "", map[string]any{"team": team.Name})
		c.JSON(http.StatusOK, team)
	}
}

func DeleteTeam(teams *store.Teams, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		id := c.Param("id")
		if err := teams.Delete(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete team"})
			return
		}
		record(activity, c, snap, "team_deleted", "", map[string]any{"team_id": id})
		c.JSON(http.StatusOK, gin.H{"message": "Team deleted"})
	}
}

// AddTeamMember puts an existing user on a team's roster and tells them.
func AddTeamMember(teams *store.Teams, users *store.Users, notifier *notify.Notifier, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		team, err := teams.ByID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
			return
		}

		var input struct {
			Username string `json:"username"`
		}
		if err := c.ShouldBindJSON(&input); err != nil || input.Username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username required"})
			return
		}
		if _, err := users.ByUsername(input.Username); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		if err := teams.AddMember(team.ID, input.Username, snap.Username); err != nil {
			if errors.Is(err, store.ErrDuplicateMember) {
				c.JSON(http.StatusConflict, gin.H{"error": "User already in team"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
			return
		}

		if notifier != nil {
			notifier.Send(snap, input.Username, "team_added",
				"Added to team", fmt.Sprintf("You were added to team %s", team.Name), "")
		}
		record(activity, c, snap, "team_member_added", "", map[string]any{
			"team": team.Name, "username": input.Username,
		})
		c.JSON(http.StatusOK, gin.H{"message": "Member added"})
	}
}

func RemoveTeamMember(teams *store.Teams, activity *store.Activity) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := snapshotFrom(c)
		if !ok {
			return
		}
		teamID := c.Param("id")
		username := c.Param("username")
		if err := teams.RemoveMember(teamID, username); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
			return
		}
		record(activity, c, snap, "team_member_removed", "", map[string]any{
			"team_id": teamID, "username": username,
		})
		c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
	}
}
