package handlers

import (
	"errors"
	"net/http"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/apierr"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/auth"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/realtime"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikePost likes a post. The counter bump is applied optimistically and
// reverted if the like row can't be written.
func (h *Handlers) LikePost(c *gin.Context) {
	user := auth.CurrentUser(c)
	postID := c.Param("id")

	var post models.Post
	err := database.DB.Select("id", "user_id").Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apierr.NotFound("post"))
		return
	} else if err != nil {
		respondError(c, apierr.InternalError("couldn't like the post"))
		return
	}

	action := OptimisticAction{
		Name: "like",
		Apply: func() error {
			return database.DB.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		},
		Mutate: func() error {
			// The unique (post_id, user_id) index makes repeat likes no-ops
			res := database.DB.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Like{PostID: postID, UserID: user.ID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errAlreadyLiked
			}
			return nil
		},
		Revert: func() error {
			return database.DB.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
		},
	}

	if err := action.Execute(); err != nil {
		if errors.Is(err, errAlreadyLiked) {
			c.JSON(http.StatusOK, gin.H{"status": "already_liked"})
			return
		}
		respondError(c, apierr.InternalError("couldn't like the post"))
		return
	}

	h.bus.Publish(realtime.Event{
		Scope:    "posts",
		Type:     realtime.EventUpdate,
		RecordID: postID,
	})
	if h.hub != nil && post.UserID != user.ID {
		h.hub.SendToUser(post.UserID, realtime.NewMessage(realtime.MessageTypePostLiked, gin.H{
			"post_id":  postID,
			"liked_by": user.Username,
		}))
	}

	c.JSON(http.StatusOK, gin.H{"status": "liked"})
}

var (
	errAlreadyLiked    = errors.New("already liked")
	errNotLiked        = errors.New("not liked")
	errAlreadyFollowed = errors.New("already following")
)

// UnlikePost removes a like, reverting the optimistic counter drop if the
// row delete fails
func (h *Handlers) UnlikePost(c *gin.Context) {
	user := auth.CurrentUser(c)
	postID := c.Param("id")

	action := OptimisticAction{
		Name: "unlike",
		Apply: func() error {
			return database.DB.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
		},
		Mutate: func() error {
			res := database.DB.Where("post_id = ? AND user_id = ?", postID, user.ID).
				Delete(&models.Like{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errNotLiked
			}
			return nil
		},
		Revert: func() error {
			return database.DB.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		},
	}

	if err := action.Execute(); err != nil {
		if errors.Is(err, errNotLiked) {
			c.JSON(http.StatusOK, gin.H{"status": "not_liked"})
			return
		}
		respondError(c, apierr.InternalError("couldn't unlike the post"))
		return
	}

	h.bus.Publish(realtime.Event{
		Scope:    "posts",
		Type:     realtime.EventUpdate,
		RecordID: postID,
	})

	c.JSON(http.StatusOK, gin.H{"status": "unliked"})
}

// FollowUser creates a follow edge and bumps both counters
func (h *Handlers) FollowUser(c *gin.Context) {
	user := auth.CurrentUser(c)
	targetID := c.Param("id")

	if targetID == user.ID {
		respondError(c, apierr.BadRequest("you can't follow yourself"))
		return
	}

	var target models.User
	err := database.DB.Select("id", "username").Where("id = ?", targetID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apierr.NotFound("user"))
		return
	} else if err != nil {
		respondError(c, apierr.InternalError("couldn't follow"))
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: user.ID, FolloweeID: targetID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyFollowed
		}
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
	})
	if err != nil {
		if errors.Is(err, errAlreadyFollowed) {
			c.JSON(http.StatusOK, gin.H{"status": "already_following"})
			return
		}
		respondError(c, apierr.InternalError("couldn't follow"))
		return
	}

	if h.hub != nil {
		h.hub.SendToUser(targetID, realtime.NewMessage(realtime.MessageTypeNewFollower, gin.H{
			"follower": user.Username,
		}))
	}

	c.JSON(http.StatusOK, gin.H{"status": "following"})
}

// UnfollowUser removes a follow edge and adjusts both counters
func (h *Handlers) UnfollowUser(c *gin.Context) {
	user := auth.CurrentUser(c)
	targetID := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", user.ID, targetID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"status": "not_following"})
			return
		}
		respondError(c, apierr.InternalError("couldn't unfollow"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unfollowed"})
}
