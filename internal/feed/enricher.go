package feed

import (
	"context"
	"strings"
	"sync"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Enricher attaches author profiles, tag names, and view counts to a
// candidate pool using one batched query per related table. The three
// lookups run concurrently and are joined before scoring. A failed lookup
// degrades to null/empty values rather than failing the batch.
type Enricher struct {
	db *gorm.DB
}

// NewEnricher creates an enricher over the given connection
func NewEnricher(db *gorm.DB) *Enricher {
	return &Enricher{db: db}
}

type postTagRow struct {
	PostID string
	Name   string
}

type viewCountRow struct {
	PostID string
	Count  int64
}

// Enrich converts posts into candidates with related data attached,
// preserving input order
func (e *Enricher) Enrich(ctx context.Context, posts []models.Post) []Candidate {
	if len(posts) == 0 {
		return []Candidate{}
	}

	postIDs := make([]string, 0, len(posts))
	userIDSet := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		userIDSet[p.UserID] = struct{}{}
	}
	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}

	var (
		wg          sync.WaitGroup
		authors     map[string]*models.User
		tagsByPost  map[string][]string
		viewsByPost map[string]int64
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		var users []models.User
		if err := e.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			logger.Log.Warn("Author enrichment failed", zap.Error(err))
			authors = map[string]*models.User{}
			return
		}
		authors = make(map[string]*models.User, len(users))
		for i := range users {
			authors[users[i].ID] = &users[i]
		}
	}()

	go func() {
		defer wg.Done()
		var rows []postTagRow
		err := e.db.WithContext(ctx).
			Table("post_tags").
			Select("post_tags.post_id AS post_id, tags.name AS name").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("post_tags.post_id IN ?", postIDs).
			Scan(&rows).Error
		if err != nil {
			logger.Log.Warn("Tag enrichment failed", zap.Error(err))
			tagsByPost = map[string][]string{}
			return
		}
		tagsByPost = make(map[string][]string, len(posts))
		for _, r := range rows {
			tagsByPost[r.PostID] = append(tagsByPost[r.PostID], strings.ToLower(r.Name))
		}
	}()

	go func() {
		defer wg.Done()
		var rows []viewCountRow
		err := e.db.WithContext(ctx).
			Table("post_views").
			Select("post_id, COUNT(*) AS count").
			Where("post_id IN ?", postIDs).
			Group("post_id").
			Scan(&rows).Error
		if err != nil {
			logger.Log.Warn("View count enrichment failed", zap.Error(err))
			viewsByPost = map[string]int64{}
			return
		}
		viewsByPost = make(map[string]int64, len(rows))
		for _, r := range rows {
			viewsByPost[r.PostID] = r.Count
		}
	}()

	wg.Wait()

	candidates := make([]Candidate, 0, len(posts))
	for _, p := range posts {
		tags := tagsByPost[p.ID]
		if tags == nil {
			tags = []string{}
		}
		candidates = append(candidates, Candidate{
			Post:      p,
			Author:    authors[p.UserID],
			Tags:      tags,
			ViewCount: viewsByPost[p.ID],
		})
	}
	return candidates
}
