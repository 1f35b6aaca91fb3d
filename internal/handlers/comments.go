package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/apierr"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/auth"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/realtime"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type createCommentBody struct {
	Content  string  `json:"content" binding:"required,max=5000"`
	ParentID *string `json:"parent_id"`
}

// CreateComment adds a comment to a post, optionally threaded under a
// parent comment on the same post
func (h *Handlers) CreateComment(c *gin.Context) {
	user := auth.CurrentUser(c)
	postID := c.Param("id")

	var body createCommentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apierr.ValidationError("content", "comment content is required"))
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		respondError(c, apierr.ValidationError("content", "comment content is required"))
		return
	}

	var post models.Post
	err := database.DB.Select("id", "user_id").Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apierr.NotFound("post"))
		return
	} else if err != nil {
		respondError(c, apierr.InternalError("couldn't add the comment"))
		return
	}

	if body.ParentID != nil {
		var parent models.Comment
		err := database.DB.Select("id", "post_id").Where("id = ?", *body.ParentID).First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && parent.PostID != postID) {
			respondError(c, apierr.ValidationError("parent_id", "parent comment not found on this post"))
			return
		} else if err != nil {
			respondError(c, apierr.InternalError("couldn't add the comment"))
			return
		}
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   user.ID,
		Content:  content,
		ParentID: body.ParentID,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		respondError(c, apierr.InternalError("couldn't add the comment"))
		return
	}

	h.bus.Publish(realtime.Event{
		Scope:    "posts",
		Type:     realtime.EventUpdate,
		RecordID: postID,
	})
	if h.hub != nil && post.UserID != user.ID {
		h.hub.SendToUser(post.UserID, realtime.NewMessage(realtime.MessageTypeNewComment, gin.H{
			"post_id":      postID,
			"comment_id":   comment.ID,
			"commented_by": user.Username,
		}))
	}

	comment.User = *user
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// ListComments returns a post's comments oldest-first with authors preloaded.
// Threading is left to the client; parent_id carries the structure.
func (h *Handlers) ListComments(c *gin.Context) {
	postID := c.Param("id")
	limit := parseInt(c.Query("limit"), 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := parseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	var comments []models.Comment
	err := database.DB.WithContext(c.Request.Context()).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		respondError(c, apierr.InternalError("couldn't load comments"))
		return
	}

	// Removed comments keep their place in the thread but lose their text
	for i := range comments {
		if comments[i].IsDeleted {
			comments[i].Content = ""
		}
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// DeleteComment marks the caller's own comment as removed. The row stays so
// replies keep their thread position.
func (h *Handlers) DeleteComment(c *gin.Context) {
	user := auth.CurrentUser(c)
	commentID := c.Param("commentId")

	var comment models.Comment
	err := database.DB.Where("id = ?", commentID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apierr.NotFound("comment"))
		return
	} else if err != nil {
		respondError(c, apierr.InternalError("couldn't delete the comment"))
		return
	}
	if comment.UserID != user.ID {
		respondError(c, apierr.Forbidden("you can only delete your own comments"))
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
			UpdateColumn("is_deleted", true).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
	if err != nil {
		respondError(c, apierr.InternalError("couldn't delete the comment"))
		return
	}

	h.bus.Publish(realtime.Event{
		Scope:    "posts",
		Type:     realtime.EventUpdate,
		RecordID: comment.PostID,
	})

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
