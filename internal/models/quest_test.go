package models

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestTypeValid(t *testing.T) {
	valid := []QuestType{
		QuestTypeXPEarn, QuestTypeLessonsComplete, QuestTypeStreakMaintain,
		QuestTypeAccuracyAchieve, QuestTypeQuizComplete, QuestTypeCategoryFocus,
		QuestTypeLanguageFocus,
	}
	for _, qt := range valid {
		assert.True(t, qt.Valid(), "expected %q to be valid", qt)
	}
	assert.False(t, QuestType("daily_bonus").Valid())
	assert.False(t, QuestType("").Valid())
}

func TestParseQuestTypeData_CategoryFocus(t *testing.T) {
	raw := []byte(`{"category":"grammar","level":"basic"}`)
	data, err := ParseQuestTypeData(QuestTypeCategoryFocus, raw)
	require.NoError(t, err)
	require.NotNil(t, data.CategoryFocus)
	assert.Equal(t, "grammar", data.CategoryFocus.Category)
	assert.Equal(t, "basic", data.CategoryFocus.Level)
	assert.Nil(t, data.LanguageFocus)
	assert.False(t, data.RequiresLanguageContext())
}

func TestParseQuestTypeData_LanguageFocus(t *testing.T) {
	raw := []byte(`{"requires_language_context":true}`)
	data, err := ParseQuestTypeData(QuestTypeLanguageFocus, raw)
	require.NoError(t, err)
	require.NotNil(t, data.LanguageFocus)
	assert.True(t, data.RequiresLanguageContext())
}

func TestParseQuestTypeData_EmptyPayload(t *testing.T) {
	for _, qt := range []QuestType{QuestTypeXPEarn, QuestTypeCategoryFocus, QuestTypeLanguageFocus} {
		data, err := ParseQuestTypeData(qt, nil)
		require.NoError(t, err)
		assert.Nil(t, data.CategoryFocus)
		assert.Nil(t, data.LanguageFocus)
	}
}

func TestParseQuestTypeData_IgnoredForPayloadlessTypes(t *testing.T) {
	// Payloads on types that carry none are silently dropped.
	data, err := ParseQuestTypeData(QuestTypeQuizComplete, []byte(`{"category":"math"}`))
	require.NoError(t, err)
	assert.Nil(t, data.CategoryFocus)
}

func TestParseQuestTypeData_Malformed(t *testing.T) {
	_, err := ParseQuestTypeData(QuestTypeCategoryFocus, []byte(`{bad json`))
	assert.Error(t, err)
}

func TestQuestTypeDataMarshalFor(t *testing.T) {
	data := QuestTypeData{CategoryFocus: &CategoryFocusData{Category: "listening", Level: "advanced"}}
	raw, err := data.MarshalFor(QuestTypeCategoryFocus)
	require.NoError(t, err)

	var decoded CategoryFocusData
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "listening", decoded.Category)

	// No payload branch set for the type yields nil.
	raw, err = data.MarshalFor(QuestTypeLanguageFocus)
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = data.MarshalFor(QuestTypeXPEarn)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		name        string
		progress    int
		requirement int
		expected    int
	}{
		{"zero progress", 0, 5, 0},
		{"partial", 2, 5, 40},
		{"rounds down", 1, 3, 33},
		{"exact", 5, 5, 100},
		{"capped over requirement", 12, 5, 100},
		{"zero requirement", 3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := &UserQuestLinkWithDefinition{
				UserQuestLink: UserQuestLink{ProgressValue: tt.progress},
				Definition:    &QuestDefinition{RequirementValue: tt.requirement},
			}
			assert.Equal(t, tt.expected, link.ProgressPercentage())
		})
	}
}

func TestProgressPercentage_NilDefinition(t *testing.T) {
	link := &UserQuestLinkWithDefinition{UserQuestLink: UserQuestLink{ProgressValue: 3}}
	assert.Equal(t, 0, link.ProgressPercentage())
}

func TestEventTypeValid(t *testing.T) {
	assert.True(t, EventQuizCompleted.Valid())
	assert.True(t, EventQuestionAnswered.Valid())
	assert.True(t, EventLessonCompleted.Valid())
	assert.False(t, EventType("streak_frozen").Valid())
}

func TestUserMarshalJSON(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	user := &User{
		ID:               7,
		Username:         "lena",
		Email:            sql.NullString{String: "lena@example.com", Valid: true},
		LastActivityDate: sql.NullTime{Time: now, Valid: true},
		CurrentStreak:    4,
	}
	raw, err := json.Marshal(user)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "lena@example.com", out["email"])
	assert.NotNil(t, out["last_activity_date"])
	assert.Equal(t, float64(4), out["current_streak"])

	// Null columns serialize as JSON null, not wrapper objects.
	user.Email = sql.NullString{}
	raw, err = json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Nil(t, out["email"])
}
