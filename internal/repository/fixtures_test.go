package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/forum-api/internal/database"
	"github.com/noah-isme/forum-api/internal/models"
)

func setupForumDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         models.RoleMember,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedQuestion(t *testing.T, db *gorm.DB, authorID uint, title string, tags ...string) models.Question {
	t.Helper()
	question := models.Question{
		AuthorID:    authorID,
		Title:       title,
		Description: "A description that is long enough to pass validation.",
		Tags:        tags,
		Status:      models.QuestionStatusOpen,
	}
	require.NoError(t, db.Create(&question).Error)
	return question
}

func seedAnswer(t *testing.T, repo AnswerRepository, questionID, authorID uint) models.Answer {
	t.Helper()
	answer := models.Answer{
		QuestionID: questionID,
		AuthorID:   authorID,
		Content:    "An answer body that explains the solution in detail.",
	}
	require.NoError(t, repo.Create(context.Background(), &answer))
	return answer
}
