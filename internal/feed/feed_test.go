package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive across queries
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.AllModels()...))
	return db
}

func makeUser(t *testing.T, db *gorm.DB, username string) models.User {
	user := models.User{
		Username:    username,
		DisplayName: username,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func tagFor(t *testing.T, db *gorm.DB, name string) models.Tag {
	var tag models.Tag
	require.NoError(t, db.FirstOrCreate(&tag, models.Tag{Name: strings.ToLower(name)}).Error)
	return tag
}

type postSpec struct {
	Title     string
	ExamType  string
	Likes     int
	Comments  int
	CreatedAt time.Time
	Tags      []string
	Score     *float64
}

func makePost(t *testing.T, db *gorm.DB, author models.User, spec postSpec) models.Post {
	tags := make([]models.Tag, 0, len(spec.Tags))
	for _, name := range spec.Tags {
		tags = append(tags, tagFor(t, db, name))
	}

	post := models.Post{
		UserID:       author.ID,
		Title:        spec.Title,
		ExamType:     spec.ExamType,
		LikeCount:    spec.Likes,
		CommentCount: spec.Comments,
		TrendScore:   spec.Score,
		Tags:         tags,
		CreatedAt:    spec.CreatedAt,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func addViews(t *testing.T, db *gorm.DB, postID string, n int) {
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&models.PostView{PostID: postID}).Error)
	}
}

func candidateIDs(candidates []Candidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Post.ID)
	}
	return ids
}

func postIDs(posts []models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}
