package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jellyworks/team-tasks-api/internal/constants"
	"github.com/jellyworks/team-tasks-api/internal/database"
	"github.com/jellyworks/team-tasks-api/internal/middleware"
	"github.com/jellyworks/team-tasks-api/internal/models"
	"github.com/jellyworks/team-tasks-api/internal/repository"
	"github.com/jellyworks/team-tasks-api/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingMailer captures outbound mail instead of sending it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(subject, body string, to []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, subject)
	return nil
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	mailer *recordingMailer
}

// setupTestEnv builds an in-memory database and a router with the same
// route table the server uses, backed by a cookie session store.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Task{},
		&models.TaskAssignment{},
	)
	require.NoError(t, err)

	database.SetDB(db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	m := &recordingMailer{}
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	authService := services.NewAuthService(userRepo, m, "http://localhost:8080")
	teamService := services.NewTeamService(teamRepo, taskRepo, userRepo, m, "http://localhost:8080")
	taskService := services.NewTaskService(taskRepo, teamRepo)

	authHandler := NewAuthHandler(authService)
	teamHandler := NewTeamHandler(teamService)
	taskHandler := NewTaskHandler(taskService, nil)

	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/password-reset", authHandler.RequestPasswordReset)
			auth.POST("/password-reset/:token", authHandler.ResetPassword)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.POST("/password", middleware.RequireAuth(), authHandler.ChangePassword)
		}

		me := api.Group("/me")
		me.Use(middleware.RequireAuth())
		{
			me.PATCH("", authHandler.UpdateProfile)
			me.GET("/teams", teamHandler.ListMyTeams)
			me.GET("/tasks", taskHandler.MyTasks)
		}

		api.GET("/dashboard", middleware.RequireAuth(), taskHandler.Dashboard)

		teams := api.Group("/teams")
		teams.Use(middleware.RequireAuth())
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.POST("/join/:token", teamHandler.JoinTeam)
			teams.GET("/:id", middleware.RequireTeamAccess(), teamHandler.GetTeam)
			teams.PATCH("/:id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.UpdateTeam)
			teams.DELETE("/:id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.DeleteTeam)
			teams.POST("/:id/invites", middleware.RequireTeamAccess(), teamHandler.InviteMember)
			teams.POST("/:id/leave", middleware.RequireTeamAccess(), teamHandler.LeaveTeam)
			teams.DELETE("/:id/members/:user_id", middleware.RequireTeamAccess(), middleware.RequireTeamAdmin(), teamHandler.RemoveMember)
			teams.POST("/:id/tasks", middleware.RequireTeamAccess(), taskHandler.CreateTask)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/:title", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PATCH("/:title", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.POST("/:title/complete", middleware.RequireTaskAccess(), taskHandler.CompleteTask)
			tasks.DELETE("/:title", middleware.RequireTaskAccess(), taskHandler.DeleteTask)
		}
	}

	return &testEnv{db: db, router: r, mailer: m}
}

// testClient carries session cookies across requests, like a browser would.
type testClient struct {
	t       *testing.T
	env     *testEnv
	cookies []*http.Cookie
}

func newTestClient(t *testing.T, env *testEnv) *testClient {
	return &testClient{t: t, env: env}
}

func (c *testClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	c.env.router.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// signup registers a user through the API and leaves the client logged in.
func (c *testClient) signup(username, email string) map[string]interface{} {
	c.t.Helper()

	w := c.do(http.MethodPost, "/api/auth/signup", gin.H{
		"username":              username,
		"first_name":            "John",
		"last_name":             "Doe",
		"email":                 email,
		"new_password":          "Password123",
		"password_confirmation": "Password123",
	})
	require.Equal(c.t, http.StatusCreated, w.Code)
	return decodeBody(c.t, w)
}

// createTeam creates a team through the API and returns its ID.
func (c *testClient) createTeam(name, description string) uint64 {
	c.t.Helper()

	w := c.do(http.MethodPost, "/api/teams", gin.H{
		"name":        name,
		"description": description,
	})
	require.Equal(c.t, http.StatusCreated, w.Code)
	body := decodeBody(c.t, w)
	return uint64(body["id"].(float64))
}
