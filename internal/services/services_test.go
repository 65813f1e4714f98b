package services

import (
	"sync"
	"testing"
	"time"

	"github.com/jellyworks/team-tasks-api/internal/models"
	"github.com/jellyworks/team-tasks-api/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// recordingMailer captures outbound mail instead of sending it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []recordedMail
}

type recordedMail struct {
	Subject string
	Body    string
	To      []string
}

func (m *recordingMailer) Send(subject, body string, to []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recordedMail{Subject: subject, Body: body, To: to})
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *recordingMailer) at(i int) recordedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[i]
}

type serviceTestEnv struct {
	db          *gorm.DB
	mailer      *recordingMailer
	userRepo    repository.UserRepository
	teamRepo    repository.TeamRepository
	taskRepo    repository.TaskRepository
	authService *AuthService
	teamService *TeamService
	taskService *TaskService
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

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

	m := &recordingMailer{}
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return &serviceTestEnv{
		db:          db,
		mailer:      m,
		userRepo:    userRepo,
		teamRepo:    teamRepo,
		taskRepo:    taskRepo,
		authService: NewAuthService(userRepo, m, "http://localhost:8080"),
		teamService: NewTeamService(teamRepo, taskRepo, userRepo, m, "http://localhost:8080"),
		taskService: NewTaskService(taskRepo, teamRepo),
	}
}

func createTestUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestTeam(t *testing.T, env *serviceTestEnv, creatorID uint64) *models.Team {
	t.Helper()

	team, err := env.teamService.CreateTeam(CreateTeamInput{
		Name:        "Team Impala",
		Description: "A testing team",
		CreatorID:   creatorID,
	})
	require.NoError(t, err)
	return team
}

// waitForMail polls the recording mailer, since dispatch is asynchronous.
func waitForMail(t *testing.T, m *recordingMailer, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.count() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.GreaterOrEqual(t, m.count(), want, "expected %d mails to be dispatched", want)
}
