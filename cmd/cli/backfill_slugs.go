package main

import (
	"strings"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var backfillSlugsCmd = &cobra.Command{
	Use:   "backfill-slugs",
	Short: "Generate slugs for posts that predate slug support",
	RunE:  runBackfillSlugs,
}

func runBackfillSlugs(cmd *cobra.Command, args []string) error {
	var updated, skipped int64

	var posts []models.Post
	err := database.DB.Select("id", "title").
		Where("slug IS NULL").
		FindInBatches(&posts, 500, func(tx *gorm.DB, batch int) error {
			for _, p := range posts {
				base := models.Slugify(p.Title)
				if base == "" {
					skipped++
					continue
				}
				slug := base + "-" + strings.Split(uuid.New().String(), "-")[0]
				if err := database.DB.Model(&models.Post{}).Where("id = ?", p.ID).
					UpdateColumn("slug", slug).Error; err != nil {
					return err
				}
				updated++
			}
			return nil
		}).Error
	if err != nil {
		return err
	}

	logger.Log.Info("Slug backfill complete",
		zap.Int64("updated", updated),
		zap.Int64("skipped", skipped))
	return nil
}
