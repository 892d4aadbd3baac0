package handlers

import (
	"context"
	"time"

	"questengine/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockQuestCatalogService is a testify mock for QuestCatalogServiceInterface
type MockQuestCatalogService struct {
	mock.Mock
}

func (m *MockQuestCatalogService) EnsureCatalogForDay(ctx context.Context, day time.Time) ([]*models.QuestDefinition, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuestDefinition), args.Error(1)
}

func (m *MockQuestCatalogService) GetCatalogForDay(ctx context.Context, day time.Time) ([]*models.QuestDefinition, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuestDefinition), args.Error(1)
}

func (m *MockQuestCatalogService) GetQuestByID(ctx context.Context, questID int) (*models.QuestDefinition, error) {
	args := m.Called(ctx, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestDefinition), args.Error(1)
}

// MockQuestAssignmentService is a testify mock for QuestAssignmentServiceInterface
type MockQuestAssignmentService struct {
	mock.Mock
}

func (m *MockQuestAssignmentService) AssignForUser(ctx context.Context, userID int, day time.Time) ([]*models.UserQuestLinkWithDefinition, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserQuestLinkWithDefinition), args.Error(1)
}

func (m *MockQuestAssignmentService) GetUserQuestLinks(ctx context.Context, userID int, day time.Time) ([]*models.UserQuestLinkWithDefinition, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserQuestLinkWithDefinition), args.Error(1)
}

func (m *MockQuestAssignmentService) GetUserDailyQuests(ctx context.Context, userID int, day time.Time) ([]*models.UserDailyQuest, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserDailyQuest), args.Error(1)
}

// MockQuestProgressService is a testify mock for QuestProgressServiceInterface
type MockQuestProgressService struct {
	mock.Mock
}

func (m *MockQuestProgressService) ApplyEvent(ctx context.Context, userID int, event *models.ActivityEvent) (*models.ProgressResult, error) {
	args := m.Called(ctx, userID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgressResult), args.Error(1)
}

// MockStreakService is a testify mock for StreakServiceInterface
type MockStreakService struct {
	mock.Mock
}

func (m *MockStreakService) RecordActivity(ctx context.Context, userID int, activityDay time.Time) (*models.StreakResult, error) {
	args := m.Called(ctx, userID, activityDay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StreakResult), args.Error(1)
}

func (m *MockStreakService) GetStreakStatus(ctx context.Context, userID int) (*models.StreakStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StreakStatus), args.Error(1)
}

// MockUserService is a testify mock for UserServiceInterface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserByID(ctx context.Context, userID int) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetLanguageContext(ctx context.Context, userID int) (*models.LanguageContext, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LanguageContext), args.Error(1)
}

func (m *MockUserService) SetUserLanguage(ctx context.Context, userID int, languageCode string) error {
	args := m.Called(ctx, userID, languageCode)
	return args.Error(0)
}

func (m *MockUserService) ListLanguages(ctx context.Context) ([]*models.Language, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Language), args.Error(1)
}
