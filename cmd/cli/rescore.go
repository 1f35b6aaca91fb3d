package main

import (
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/feed"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rescoreBatchSize int

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute and persist trending scores for all posts",
	Long: `Recomputes the time-decayed engagement score for every post and writes
it to the trend_score column. The feed trusts persisted scores as-is, so
run this periodically (e.g. from cron) to keep hot posts decaying.`,
	RunE: runRescore,
}

func init() {
	rescoreCmd.Flags().IntVar(&rescoreBatchSize, "batch-size", 500, "posts per batch")
}

func runRescore(cmd *cobra.Command, args []string) error {
	start := time.Now()
	now := time.Now().UTC()
	var scored int64

	var posts []models.Post
	err := database.DB.Select("id", "like_count", "comment_count", "created_at").
		FindInBatches(&posts, rescoreBatchSize, func(tx *gorm.DB, batch int) error {
			ids := make([]string, len(posts))
			for i, p := range posts {
				ids[i] = p.ID
			}

			viewCounts := make(map[string]int64, len(posts))
			rows := []struct {
				PostID string
				Count  int64
			}{}
			if err := database.DB.Model(&models.PostView{}).
				Select("post_id", "COUNT(*) as count").
				Where("post_id IN ?", ids).
				Group("post_id").
				Scan(&rows).Error; err != nil {
				return err
			}
			for _, r := range rows {
				viewCounts[r.PostID] = r.Count
			}

			for _, p := range posts {
				score := feed.TrendScore(p.LikeCount, p.CommentCount, viewCounts[p.ID], now.Sub(p.CreatedAt))
				if err := database.DB.Model(&models.Post{}).Where("id = ?", p.ID).
					UpdateColumn("trend_score", score).Error; err != nil {
					return err
				}
				scored++
			}
			return nil
		}).Error
	if err != nil {
		return err
	}

	logger.Log.Info("Rescore complete",
		zap.Int64("posts", scored),
		zap.Duration("took", time.Since(start)))
	return nil
}
