package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/nirajmohabey/habit-tracker/models"
)

func TestCreateHabitDefaults(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t)

	w := app.do(t, http.MethodPost, "/api/habits", gin.H{"name": "Journal"}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Habit models.Habit `json:"habit"`
	}
	decodeJSON(t, w, &resp)
	require.Equal(t, "Journal", resp.Habit.Name)
	require.Equal(t, "✅", resp.Habit.Emoji)
	require.Equal(t, "Other", resp.Habit.Category)
	require.Equal(t, 30, resp.Habit.Goal)

	w = app.do(t, http.MethodPost, "/api/habits", gin.H{"name": "Run", "goal": -1}, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Goal zero is the dynamic "every day of the month" marker and must
	// survive the insert as-is.
	w = app.do(t, http.MethodPost, "/api/habits", gin.H{"name": "Walk", "goal": 0}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	decodeJSON(t, w, &resp)
	require.Equal(t, 0, resp.Habit.Goal)

	w = app.do(t, http.MethodPost, "/api/habits", gin.H{"emoji": "🏃"}, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHabitsListsOwnOnly(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t)
	app.createHabit(t, cookie, "Journal")

	other := models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, app.DB.Create(&other).Error)
	require.NoError(t, app.DB.Create(&models.Habit{UserID: other.ID, Name: "Foreign"}).Error)

	w := app.do(t, http.MethodGet, "/api/habits", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var habits []models.Habit
	decodeJSON(t, w, &habits)
	require.Len(t, habits, 13) // 12 defaults plus Journal
	for _, habit := range habits {
		require.NotEqual(t, "Foreign", habit.Name)
	}
}

func TestUpdateHabitPartial(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t)
	id := app.createHabit(t, cookie, "Journal")

	w := app.do(t, http.MethodPut, "/api/habits/"+id.String(), gin.H{"goal": 10}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var habit models.Habit
	require.NoError(t, app.DB.First(&habit, "id = ?", id).Error)
	require.Equal(t, 10, habit.Goal)
	require.Equal(t, "Journal", habit.Name) // untouched fields survive

	w = app.do(t, http.MethodPut, "/api/habits/"+id.String(), gin.H{"name": ""}, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHabitOwnershipAndBadIDs(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t)

	other := models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, app.DB.Create(&other).Error)
	foreign := models.Habit{UserID: other.ID, Name: "Foreign"}
	require.NoError(t, app.DB.Create(&foreign).Error)

	// A foreign habit is indistinguishable from a missing one.
	w := app.do(t, http.MethodPut, "/api/habits/"+foreign.ID.String(), gin.H{"goal": 5}, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(t, http.MethodDelete, "/api/habits/"+foreign.ID.String(), nil, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodPut, "/api/habits/not-a-uuid", gin.H{"goal": 5}, cookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteHabitCascadesLogs(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t)
	id := app.createHabit(t, cookie, "Journal")

	w := app.do(t, http.MethodPost, "/api/logs", gin.H{
		"habit_id": id.String(),
		"date":     "2026-08-25",
	}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodDelete, "/api/habits/"+id.String(), nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var habits, logs int64
	require.NoError(t, app.DB.Model(&models.Habit{}).Where("id = ?", id).Count(&habits).Error)
	require.NoError(t, app.DB.Model(&models.HabitLog{}).Where("habit_id = ?", id).Count(&logs).Error)
	require.Zero(t, habits)
	require.Zero(t, logs)
}
