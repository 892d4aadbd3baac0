package models

import (
	"database/sql"
	"encoding/json"
	"time"

	contextutils "questengine/internal/utils"
)

// QuestType identifies a quest archetype. The catalog carries at most one
// definition per (quest_date, quest_type) pair.
type QuestType string

// Quest archetypes
const (
	QuestTypeXPEarn          QuestType = "xp_earn"
	QuestTypeLessonsComplete QuestType = "lessons_complete"
	QuestTypeStreakMaintain  QuestType = "streak_maintain"
	QuestTypeAccuracyAchieve QuestType = "accuracy_achieve"
	QuestTypeQuizComplete    QuestType = "quiz_complete"
	QuestTypeCategoryFocus   QuestType = "category_focus"
	QuestTypeLanguageFocus   QuestType = "language_focus"
)

// Valid reports whether the quest type is one of the known archetypes.
func (t QuestType) Valid() bool {
	switch t {
	case QuestTypeXPEarn, QuestTypeLessonsComplete, QuestTypeStreakMaintain,
		QuestTypeAccuracyAchieve, QuestTypeQuizComplete, QuestTypeCategoryFocus,
		QuestTypeLanguageFocus:
		return true
	}
	return false
}

// CategoryFocusData is the type-specific payload for category_focus quests.
type CategoryFocusData struct {
	Category string `json:"category"`
	Level    string `json:"level"`
}

// LanguageFocusData is the type-specific payload for language_focus quests.
type LanguageFocusData struct {
	RequiresLanguageContext bool `json:"requires_language_context"`
}

// QuestTypeData is a tagged payload varying by quest type. At most one branch
// is set; which one is determined by the owning definition's QuestType.
type QuestTypeData struct {
	CategoryFocus *CategoryFocusData `json:"-"`
	LanguageFocus *LanguageFocusData `json:"-"`
}

// RequiresLanguageContext reports whether the quest only applies to users with
// a selected learning language.
func (d QuestTypeData) RequiresLanguageContext() bool {
	return d.LanguageFocus != nil && d.LanguageFocus.RequiresLanguageContext
}

// ParseQuestTypeData decodes the persisted JSON payload for the given quest
// type. Types without a payload yield the zero value; malformed payloads for
// payload-carrying types are an error.
func ParseQuestTypeData(questType QuestType, raw []byte) (QuestTypeData, error) {
	var data QuestTypeData
	if len(raw) == 0 {
		return data, nil
	}

	switch questType {
	case QuestTypeCategoryFocus:
		var cf CategoryFocusData
		if err := json.Unmarshal(raw, &cf); err != nil {
			return data, contextutils.WrapError(err, "invalid category_focus payload")
		}
		data.CategoryFocus = &cf
	case QuestTypeLanguageFocus:
		var lf LanguageFocusData
		if err := json.Unmarshal(raw, &lf); err != nil {
			return data, contextutils.WrapError(err, "invalid language_focus payload")
		}
		data.LanguageFocus = &lf
	}

	return data, nil
}

// MarshalFor encodes the payload branch matching the given quest type.
// Returns nil for types without a payload.
func (d QuestTypeData) MarshalFor(questType QuestType) ([]byte, error) {
	switch questType {
	case QuestTypeCategoryFocus:
		if d.CategoryFocus == nil {
			return nil, nil
		}
		return json.Marshal(d.CategoryFocus)
	case QuestTypeLanguageFocus:
		if d.LanguageFocus == nil {
			return nil, nil
		}
		return json.Marshal(d.LanguageFocus)
	}
	return nil, nil
}

// QuestDefinition is one catalog entry: a quest archetype instantiated for a
// calendar day. Definitions are immutable once created.
type QuestDefinition struct {
	ID               int           `json:"id"`
	QuestDate        time.Time     `json:"quest_date"`
	QuestType        QuestType     `json:"quest_type"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	RequirementValue int           `json:"requirement_value"`
	TypeData         QuestTypeData `json:"type_data"`
	XPReward         int           `json:"xp_reward"`
	GemReward        int           `json:"gem_reward"`
	IsGenerated      bool          `json:"is_generated"`
	IsActive         bool          `json:"is_active"`
	CreatedAt        time.Time     `json:"created_at"`
}

// UserQuestLink is the per-user assignment and progress record for one
// QuestDefinition. ProgressValue is monotonically non-decreasing and
// IsCompleted transitions false→true exactly once.
type UserQuestLink struct {
	ID            int          `json:"id"`
	UserID        int          `json:"user_id"`
	QuestID       int          `json:"quest_id"`
	ProgressValue int          `json:"progress_value"`
	IsCompleted   bool         `json:"is_completed"`
	CompletedAt   sql.NullTime `json:"completed_at"`
	CreatedAt     time.Time    `json:"created_at"`
}

// UserQuestLinkWithDefinition pairs a link with its fully-populated
// definition. Services pass these around as plain data; there is no lazy
// loading.
type UserQuestLinkWithDefinition struct {
	UserQuestLink
	Definition *QuestDefinition `json:"definition"`
}

// ProgressPercentage returns completion progress as a capped percentage.
func (l *UserQuestLinkWithDefinition) ProgressPercentage() int {
	if l.Definition == nil || l.Definition.RequirementValue <= 0 {
		return 0
	}
	pct := l.ProgressValue * 100 / l.Definition.RequirementValue
	if pct > 100 {
		pct = 100
	}
	return pct
}

// EventType identifies the kind of activity that produced an ActivityEvent.
type EventType string

// Activity event types
const (
	EventQuizCompleted    EventType = "quiz_completed"
	EventQuestionAnswered EventType = "question_answered"
	EventLessonCompleted  EventType = "lesson_completed"
)

// Valid reports whether the event type is known.
func (t EventType) Valid() bool {
	switch t {
	case EventQuizCompleted, EventQuestionAnswered, EventLessonCompleted:
		return true
	}
	return false
}

// ActivityEventData carries the optional measurements attached to an event.
type ActivityEventData struct {
	Score        *float64 `json:"score,omitempty"`
	Accuracy     *float64 `json:"accuracy,omitempty"`
	Category     string   `json:"category,omitempty"`
	Level        string   `json:"level,omitempty"`
	XPEarned     *int     `json:"xp_earned,omitempty"`
	LanguageCode string   `json:"language_code,omitempty"`
}

// ActivityEvent is a transient activity notification; it is matched against a
// user's open quest links and never persisted by this engine.
type ActivityEvent struct {
	Type EventType         `json:"type" binding:"required"`
	Data ActivityEventData `json:"data"`
}

// ProgressResult reports the outcome of applying one activity event.
type ProgressResult struct {
	Updated   []*UserQuestLinkWithDefinition `json:"updated"`
	Completed []*UserQuestLinkWithDefinition `json:"completed"`
}

// UserDailyQuest is the read-only projection of a user's quest for a day,
// served to the HTTP layer.
type UserDailyQuest struct {
	LinkID             int        `json:"link_id"`
	QuestID            int        `json:"quest_id"`
	QuestType          QuestType  `json:"quest_type"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	RequirementValue   int        `json:"requirement_value"`
	ProgressValue      int        `json:"progress_value"`
	ProgressPercentage int        `json:"progress_percentage"`
	IsCompleted        bool       `json:"is_completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	XPReward           int        `json:"xp_reward"`
	GemReward          int        `json:"gem_reward"`
}

// StreakBonus is one component of a streak reward.
type StreakBonus struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// StreakReward is the total gem reward granted by a day-advancing streak
// update, with its component breakdown.
type StreakReward struct {
	Type      string        `json:"type"`
	Amount    int           `json:"amount"`
	Milestone int           `json:"milestone"`
	Details   []StreakBonus `json:"details,omitempty"`
}

// StreakResult is the outcome of recording a day of activity.
type StreakResult struct {
	CurrentStreak int           `json:"current_streak"`
	LearnedToday  bool          `json:"learned_today"`
	Reward        *StreakReward `json:"reward,omitempty"`
}

// StreakStatus is the read-only streak snapshot.
type StreakStatus struct {
	CurrentStreak    int        `json:"current_streak"`
	MaxStreak        int        `json:"max_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	LearnedToday     bool       `json:"learned_today"`
	TotalGems        int        `json:"total_gems"`
}
