package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/apierr"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/auth"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/feed"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/realtime"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxMediaBytes = 10 << 20 // 10MB

// CreatePost creates a post from multipart form data, uploading attached
// media when present
func (h *Handlers) CreatePost(c *gin.Context) {
	user := auth.CurrentUser(c)

	title := strings.TrimSpace(c.PostForm("title"))
	content := strings.TrimSpace(c.PostForm("content"))
	if title == "" && content == "" {
		respondError(c, apierr.ValidationError("content", "a post needs a title or content"))
		return
	}

	post := models.Post{
		UserID:   user.ID,
		Title:    title,
		Content:  content,
		LinkURL:  strings.TrimSpace(c.PostForm("link_url")),
		Category: strings.TrimSpace(c.PostForm("category")),
		ExamType: strings.TrimSpace(c.PostForm("exam_type")),
	}

	if slug := models.Slugify(title); slug != "" {
		slug = slug + "-" + strings.Split(uuid.New().String(), "-")[0]
		post.Slug = &slug
	}

	for _, name := range splitCSV(c.PostForm("tags")) {
		var tag models.Tag
		lowered := strings.ToLower(strings.TrimSpace(name))
		if err := database.DB.FirstOrCreate(&tag, models.Tag{Name: lowered}).Error; err != nil {
			logger.Log.Warn("Failed to resolve tag", zap.String("tag", lowered), zap.Error(err))
			continue
		}
		post.Tags = append(post.Tags, tag)
	}

	if file, err := c.FormFile("media"); err == nil {
		if h.uploader == nil {
			respondError(c, apierr.BadRequest("media uploads are not available"))
			return
		}
		if file.Size > maxMediaBytes {
			respondError(c, apierr.ValidationError("media", "attachment is too large"))
			return
		}
		src, err := file.Open()
		if err != nil {
			respondError(c, apierr.BadRequest("couldn't read the attachment"))
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			respondError(c, apierr.BadRequest("couldn't read the attachment"))
			return
		}
		uploaded, err := h.uploader.UploadMedia(c.Request.Context(), data, user.ID, file.Filename)
		if err != nil {
			logger.Log.Error("Media upload failed", zap.Error(err))
			respondError(c, apierr.InternalError("media upload failed"))
			return
		}
		post.MediaKey = uploaded.Key
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error; err != nil {
			return err
		}
		for _, tag := range post.Tags {
			if err := tx.Model(&models.Tag{}).Where("id = ?", tag.ID).
				Updates(map[string]interface{}{
					"post_count":   gorm.Expr("post_count + 1"),
					"last_used_at": gorm.Expr("CURRENT_TIMESTAMP"),
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Error("Failed to create post", zap.Error(err))
		respondError(c, apierr.InternalError("couldn't create the post"))
		return
	}

	h.bus.Publish(realtime.Event{
		Scope:    "posts",
		Type:     realtime.EventInsert,
		RecordID: post.ID,
	})

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns one post with author, tags, and view count attached
func (h *Handlers) GetPost(c *gin.Context) {
	h.servePost(c, "id = ?", c.Param("id"))
}

// GetPostBySlug resolves a post by its human-readable slug
func (h *Handlers) GetPostBySlug(c *gin.Context) {
	h.servePost(c, "slug = ?", c.Param("slug"))
}

func (h *Handlers) servePost(c *gin.Context, query string, arg string) {
	var post models.Post
	err := database.DB.WithContext(c.Request.Context()).
		Where(query, arg).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apierr.NotFound("post"))
		return
	} else if err != nil {
		respondError(c, apierr.InternalError("couldn't load the post"))
		return
	}

	// Single-post enrichment goes through the same batched path as the feed
	candidates := feed.NewEnricher(database.DB).Enrich(c.Request.Context(), []models.Post{post})
	c.JSON(http.StatusOK, gin.H{"post": candidates[0]})
}

// DeletePost soft-deletes the caller's own post
func (h *Handlers) DeletePost(c *gin.Context) {
	user := auth.CurrentUser(c)
	id := c.Param("id")

	var post models.Post
	err := database.DB.Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apierr.NotFound("post"))
		return
	} else if err != nil {
		respondError(c, apierr.InternalError("couldn't load the post"))
		return
	}
	if post.UserID != user.ID {
		respondError(c, apierr.Forbidden("you can only delete your own posts"))
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error
	})
	if err != nil {
		respondError(c, apierr.InternalError("couldn't delete the post"))
		return
	}

	h.bus.Publish(realtime.Event{
		Scope:    "posts",
		Type:     realtime.EventDelete,
		RecordID: post.ID,
	})

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// RecordView logs a view event, deduplicated per viewer within a window.
// Anonymous viewers are keyed by client IP.
func (h *Handlers) RecordView(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	err := database.DB.Select("id").Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apierr.NotFound("post"))
		return
	} else if err != nil {
		respondError(c, apierr.InternalError("couldn't record the view"))
		return
	}

	userID := auth.CurrentUserID(c)
	viewerKey := userID
	if viewerKey == "" {
		viewerKey = "anon:" + c.ClientIP()
	}

	if h.redis != nil && !h.redis.MarkPostViewed(c.Request.Context(), postID, viewerKey) {
		c.JSON(http.StatusOK, gin.H{"status": "already_counted"})
		return
	}

	view := models.PostView{PostID: postID}
	if userID != "" {
		view.UserID = &userID
	}
	if err := database.DB.Create(&view).Error; err != nil {
		logger.Log.Warn("Failed to record view", zap.Error(err))
		respondError(c, apierr.InternalError("couldn't record the view"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "counted"})
}
