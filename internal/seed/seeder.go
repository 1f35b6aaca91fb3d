// Package seed fills the database with realistic development data: users
// preparing for different exams, tagged posts with uneven engagement, and
// enough views and likes to make the trending feed interesting.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var examTypes = []string{"JEE", "NEET", "UPSC", "CAT", "GATE", "SSC", "CLAT", "Banking"}

var tagPool = []string{
	"physics", "chemistry", "maths", "biology", "mock-test", "previous-year",
	"strategy", "notes", "doubt", "motivation", "current-affairs", "revision",
	"time-management", "rank-predictor", "study-group", "books",
}

var postTemplates = []string{
	"How do I approach %s for %s?",
	"Sharing my %s notes for %s aspirants",
	"Scored well in the last %s mock - my %s strategy",
	"Doubt in %s - %s preparation",
	"Best resources for %s in %s?",
}

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(100)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating tags...")
	tags, err := s.seedTags()
	if err != nil {
		return fmt.Errorf("failed to seed tags: %w", err)
	}

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(users, tags, 500)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating follows...")
	if err := s.seedFollows(users, 400); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("Creating likes...")
	if err := s.seedLikes(users, posts, 2000); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if err := s.seedComments(users, posts, 1000); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Creating views...")
	if err := s.seedViews(users, posts, 5000); err != nil {
		return fmt.Errorf("failed to seed views: %w", err)
	}

	logger.Log.Info("Seed complete",
		zap.Int("users", len(users)),
		zap.Int("posts", len(posts)))
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		phone := fmt.Sprintf("+91%010d", 7000000000+rand.Int63n(2999999999))
		exams := pickN(examTypes, 1+rand.Intn(2))

		user := models.User{
			Phone:           &phone,
			Username:        fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), rand.Intn(1000)),
			DisplayName:     gofakeit.Name(),
			Bio:             gofakeit.Sentence(8),
			InterestedExams: exams,
			PhoneVerified:   true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			// Username collisions are possible with random data; skip and move on
			logger.Log.Warn("Skipping user", zap.Error(err))
			continue
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no users created")
	}
	return users, nil
}

func (s *Seeder) seedTags() ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(tagPool))
	for _, name := range tagPool {
		var tag models.Tag
		if err := s.db.FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// seedPosts spreads posts over the past 60 days so every fetch tier has
// something to return, with a bias toward the recent window
func (s *Seeder) seedPosts(users []models.User, tags []models.Tag, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	now := time.Now().UTC()

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		exam := examTypes[rand.Intn(len(examTypes))]
		subject := tagPool[rand.Intn(len(tagPool))]

		var age time.Duration
		if rand.Float64() < 0.7 {
			age = time.Duration(rand.Int63n(int64(14 * 24 * time.Hour)))
		} else {
			age = time.Duration(rand.Int63n(int64(60 * 24 * time.Hour)))
		}

		post := models.Post{
			UserID:    author.ID,
			Title:     fmt.Sprintf(postTemplates[rand.Intn(len(postTemplates))], subject, exam),
			Content:   gofakeit.Paragraph(1, 3, 12, " "),
			Category:  "discussion",
			ExamType:  exam,
			Tags:      pickTags(tags, 1+rand.Intn(3)),
			CreatedAt: now.Add(-age),
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}
		for _, tag := range post.Tags {
			s.db.Model(&models.Tag{}).Where("id = ?", tag.ID).
				Updates(map[string]interface{}{
					"post_count":   gorm.Expr("post_count + 1"),
					"last_used_at": post.CreatedAt,
				})
		}
		posts = append(posts, post)
	}

	return posts, nil
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	seen := make(map[string]struct{})
	for i := 0; i < count; i++ {
		follower := users[rand.Intn(len(users))]
		followee := users[rand.Intn(len(users))]
		if follower.ID == followee.ID {
			continue
		}
		key := follower.ID + ":" + followee.ID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&models.Follow{
				FollowerID: follower.ID,
				FolloweeID: followee.ID,
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", followee.ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).Where("id = ?", follower.ID).
				UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	seen := make(map[string]struct{})
	for i := 0; i < count; i++ {
		// Square the draw so a minority of posts collect most of the likes
		post := posts[int(float64(len(posts))*rand.Float64()*rand.Float64())]
		user := users[rand.Intn(len(users))]
		key := post.ID + ":" + user.ID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if err := s.db.Create(&models.Like{PostID: post.ID, UserID: user.ID}).Error; err != nil {
			return err
		}
		if err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		post := posts[int(float64(len(posts))*rand.Float64()*rand.Float64())]
		user := users[rand.Intn(len(users))]

		comment := models.Comment{
			PostID:  post.ID,
			UserID:  user.ID,
			Content: gofakeit.Sentence(6 + rand.Intn(10)),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
		if err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedViews(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		post := posts[int(float64(len(posts))*rand.Float64()*rand.Float64())]

		view := models.PostView{PostID: post.ID}
		if rand.Float64() < 0.6 {
			userID := users[rand.Intn(len(users))].ID
			view.UserID = &userID
		}
		if err := s.db.Create(&view).Error; err != nil {
			return err
		}
	}
	return nil
}

// Clean removes all seeded data. Destructive; dev databases only.
func (s *Seeder) Clean() error {
	tables := []string{"post_views", "likes", "comments", "post_tags", "posts", "tags", "follows", "phone_otps", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func pickN(pool []string, n int) []string {
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func pickTags(pool []models.Tag, n int) []models.Tag {
	shuffled := make([]models.Tag, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
