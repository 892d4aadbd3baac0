package services

import (
	"context"
	"database/sql"
	"errors"

	"questengine/internal/models"
	"questengine/internal/observability"
	contextutils "questengine/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// UserServiceInterface defines user and language context operations
type UserServiceInterface interface {
	GetUserByID(ctx context.Context, userID int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, username, email string) (*models.User, error)
	GetLanguageContext(ctx context.Context, userID int) (*models.LanguageContext, error)
	SetUserLanguage(ctx context.Context, userID int, languageCode string) error
	ListLanguages(ctx context.Context) ([]*models.Language, error)
}

// UserService resolves users and their selected learning language.
type UserService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(db *sql.DB, logger *observability.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, username, email, language_id, total_xp, total_gems, current_streak, max_streak, last_activity_date, created_at, updated_at`

// GetUserByID returns the user, or ErrUserNotFound.
func (s *UserService) GetUserByID(ctx context.Context, userID int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "GetUserByID",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrUserNotFound, "user %d not found", userID)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername returns the user with the given username, or ErrUserNotFound.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "GetUserByUsername",
		attribute.String("user.username", username),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrUserNotFound, "user %q not found", username)
		}
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user. A username collision surfaces as
// ErrRecordExists.
func (s *UserService) CreateUser(ctx context.Context, username, email string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "CreateUser",
		attribute.String("user.username", username),
	)
	defer observability.FinishSpan(span, &err)

	var emailValue interface{}
	if email != "" {
		emailValue = email
	}

	query := `
		INSERT INTO users (username, email, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id`
	var id int
	if err := s.db.QueryRowContext(ctx, query, username, emailValue).Scan(&id); err != nil {
		if contextutils.IsUniqueViolation(err) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordExists, "username %q already taken", username)
		}
		return nil, contextutils.WrapError(err, "failed to create user")
	}

	s.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id":  id,
		"username": username,
	})

	return s.GetUserByID(ctx, id)
}

// GetLanguageContext resolves a user and their selected learning language.
// Language-gating for quests is decided from this snapshot.
func (s *UserService) GetLanguageContext(ctx context.Context, userID int) (result0 *models.LanguageContext, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "GetLanguageContext",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	lctx := &models.LanguageContext{User: user}
	if !user.LanguageID.Valid {
		span.SetAttributes(attribute.Bool("user.has_language", false))
		return lctx, nil
	}

	var lang models.Language
	query := `SELECT id, code, name FROM languages WHERE id = $1`
	err = s.db.QueryRowContext(ctx, query, user.LanguageID.Int64).Scan(&lang.ID, &lang.Code, &lang.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Dangling language reference; treat as no selection.
			s.logger.Warn(ctx, "User references unknown language", map[string]interface{}{
				"user_id":     userID,
				"language_id": user.LanguageID.Int64,
			})
			return lctx, nil
		}
		return nil, contextutils.WrapError(err, "failed to load user language")
	}

	span.SetAttributes(attribute.Bool("user.has_language", true), attribute.String("language.code", lang.Code))
	lctx.SelectedLanguage = &lang
	return lctx, nil
}

// SetUserLanguage selects the user's learning language by code.
func (s *UserService) SetUserLanguage(ctx context.Context, userID int, languageCode string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "SetUserLanguage",
		observability.AttributeUserID(userID),
		attribute.String("language.code", languageCode),
	)
	defer observability.FinishSpan(span, &err)

	var languageID int
	err = s.db.QueryRowContext(ctx, `SELECT id FROM languages WHERE code = $1`, languageCode).Scan(&languageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "language %q not found", languageCode)
		}
		return contextutils.WrapError(err, "failed to look up language")
	}

	result, err := s.db.ExecContext(ctx, `UPDATE users SET language_id = $1, updated_at = NOW() WHERE id = $2`, languageID, userID)
	if err != nil {
		return contextutils.WrapError(err, "failed to update user language")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(err, "failed to check update result")
	}
	if affected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrUserNotFound, "user %d not found", userID)
	}
	return nil
}

// ListLanguages returns all configured learning languages.
func (s *UserService) ListLanguages(ctx context.Context) (result0 []*models.Language, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "ListLanguages")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name FROM languages ORDER BY code`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query languages")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var languages []*models.Language
	for rows.Next() {
		var lang models.Language
		if err := rows.Scan(&lang.ID, &lang.Code, &lang.Name); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan language")
		}
		languages = append(languages, &lang)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate language rows")
	}
	return languages, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.LanguageID,
		&user.TotalXP, &user.TotalGems, &user.CurrentStreak, &user.MaxStreak,
		&user.LastActivityDate, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, contextutils.WrapError(err, "failed to scan user")
	}
	return &user, nil
}
