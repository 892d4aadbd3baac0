package handlers

import (
	"net/http"
	"strconv"

	"questengine/internal/config"
	"questengine/internal/models"
	"questengine/internal/observability"
	"questengine/internal/services"
	contextutils "questengine/internal/utils"

	"github.com/gin-gonic/gin"
)

// QuestHandler handles quest catalog, assignment and progress HTTP requests
type QuestHandler struct {
	catalogService    services.QuestCatalogServiceInterface
	assignmentService services.QuestAssignmentServiceInterface
	progressService   services.QuestProgressServiceInterface
	cfg               *config.Config
	logger            *observability.Logger
}

// NewQuestHandler creates a new QuestHandler
func NewQuestHandler(
	catalogService services.QuestCatalogServiceInterface,
	assignmentService services.QuestAssignmentServiceInterface,
	progressService services.QuestProgressServiceInterface,
	cfg *config.Config,
	logger *observability.Logger,
) *QuestHandler {
	return &QuestHandler{
		catalogService:    catalogService,
		assignmentService: assignmentService,
		progressService:   progressService,
		cfg:               cfg,
		logger:            logger,
	}
}

// EnsureCatalog handles POST /v1/quests/catalog. It makes sure the shared
// quest catalog for the requested day exists, generating any missing entries.
func (h *QuestHandler) EnsureCatalog(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "ensure_catalog")
	defer observability.FinishSpan(span, nil)

	day, err := parseDayParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(observability.AttributeQuestDate(day.Format("2006-01-02")))

	definitions, err := h.catalogService.EnsureCatalogForDay(ctx, day)
	if err != nil {
		h.logger.Error(ctx, "Failed to ensure quest catalog", err, map[string]interface{}{
			"quest_date": day.Format("2006-01-02"),
		})
		HandleAppError(c, contextutils.WrapError(err, "failed to ensure quest catalog"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"quests": definitions})
}

// GetCatalog handles GET /v1/quests/catalog. It returns the shared catalog
// for the requested day without generating anything.
func (h *QuestHandler) GetCatalog(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_catalog")
	defer observability.FinishSpan(span, nil)

	day, err := parseDayParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	definitions, err := h.catalogService.GetCatalogForDay(ctx, day)
	if err != nil {
		h.logger.Error(ctx, "Failed to get quest catalog", err, map[string]interface{}{
			"quest_date": day.Format("2006-01-02"),
		})
		HandleAppError(c, contextutils.WrapError(err, "failed to get quest catalog"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"quests": definitions})
}

// GetQuest handles GET /v1/quests/:id
func (h *QuestHandler) GetQuest(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_quest")
	defer observability.FinishSpan(span, nil)

	questID, err := strconv.Atoi(c.Param("id"))
	if err != nil || questID <= 0 {
		HandleAppError(c, contextutils.ErrInvalidFormat)
		return
	}
	span.SetAttributes(observability.AttributeQuestID(questID))

	quest, err := h.catalogService.GetQuestByID(ctx, questID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, quest)
}

// AssignQuests handles POST /v1/users/:userID/quests. It materializes the
// user's quest assignments for the requested day, skipping language-gated
// quests when the user has no selected language.
func (h *QuestHandler) AssignQuests(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "assign_quests")
	defer observability.FinishSpan(span, nil)

	userID, err := parseUserIDParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	day, err := parseDayParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeQuestDate(day.Format("2006-01-02")),
	)

	links, err := h.assignmentService.AssignForUser(ctx, userID, day)
	if err != nil {
		h.logger.Error(ctx, "Failed to assign quests", err, map[string]interface{}{
			"user_id":    userID,
			"quest_date": day.Format("2006-01-02"),
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignments": links})
}

// GetUserDailyQuests handles GET /v1/users/:userID/quests. It assigns the
// day's quests if necessary and returns the user-facing projection with
// progress percentages.
func (h *QuestHandler) GetUserDailyQuests(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_user_daily_quests")
	defer observability.FinishSpan(span, nil)

	userID, err := parseUserIDParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	day, err := parseDayParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeQuestDate(day.Format("2006-01-02")),
	)

	quests, err := h.assignmentService.GetUserDailyQuests(ctx, userID, day)
	if err != nil {
		h.logger.Error(ctx, "Failed to get user daily quests", err, map[string]interface{}{
			"user_id":    userID,
			"quest_date": day.Format("2006-01-02"),
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quests": quests})
}

// ApplyEvent handles POST /v1/users/:userID/events. It routes a learning
// activity event through the progress engine and returns the quests that
// were updated or completed by it.
func (h *QuestHandler) ApplyEvent(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "apply_event")
	defer observability.FinishSpan(span, nil)

	userID, err := parseUserIDParam(c)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	var event models.ActivityEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		HandleAppError(c, contextutils.ErrInvalidInput)
		return
	}
	span.SetAttributes(
		observability.AttributeUserID(userID),
		observability.AttributeEventType(event.Type),
	)

	result, err := h.progressService.ApplyEvent(ctx, userID, &event)
	if err != nil {
		h.logger.Error(ctx, "Failed to apply activity event", err, map[string]interface{}{
			"user_id":    userID,
			"event_type": event.Type,
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
