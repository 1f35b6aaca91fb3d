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
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetProfile returns a user's public profile by username
func (h *Handlers) GetProfile(c *gin.Context) {
	username := strings.ToLower(strings.TrimSpace(c.Param("username")))

	var user models.User
	err := database.DB.WithContext(c.Request.Context()).
		Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apierr.NotFound("user"))
		return
	} else if err != nil {
		respondError(c, apierr.InternalError("couldn't load the profile"))
		return
	}

	resp := gin.H{"user": user}
	if viewer := auth.CurrentUser(c); viewer != nil && viewer.ID != user.ID {
		var count int64
		database.DB.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", viewer.ID, user.ID).
			Count(&count)
		resp["is_following"] = count > 0
	}

	c.JSON(http.StatusOK, resp)
}

// GetUserPosts returns a user's recent posts, enriched the same way the
// feed is
func (h *Handlers) GetUserPosts(c *gin.Context) {
	username := strings.ToLower(strings.TrimSpace(c.Param("username")))
	limit := parseInt(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var user models.User
	err := database.DB.Select("id").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apierr.NotFound("user"))
		return
	} else if err != nil {
		respondError(c, apierr.InternalError("couldn't load posts"))
		return
	}

	var posts []models.Post
	err = database.DB.WithContext(c.Request.Context()).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		respondError(c, apierr.InternalError("couldn't load posts"))
		return
	}

	candidates := feed.NewEnricher(database.DB).Enrich(c.Request.Context(), posts)
	c.JSON(http.StatusOK, gin.H{"posts": candidates})
}

type updateProfileBody struct {
	DisplayName     *string  `json:"display_name"`
	Bio             *string  `json:"bio"`
	Username        *string  `json:"username"`
	InterestedExams []string `json:"interested_exams"`
}

// UpdateProfile applies partial updates to the caller's own profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user := auth.CurrentUser(c)

	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apierr.BadRequest("invalid profile payload"))
		return
	}

	updates := map[string]interface{}{}
	if body.DisplayName != nil {
		name := strings.TrimSpace(*body.DisplayName)
		if name == "" {
			respondError(c, apierr.ValidationError("display_name", "display name can't be empty"))
			return
		}
		updates["display_name"] = name
	}
	if body.Bio != nil {
		updates["bio"] = strings.TrimSpace(*body.Bio)
	}
	if body.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*body.Username))
		if len(username) < 3 || len(username) > 30 {
			respondError(c, apierr.ValidationError("username", "username must be 3-30 characters"))
			return
		}
		var count int64
		database.DB.Model(&models.User{}).
			Where("username = ? AND id != ?", username, user.ID).
			Count(&count)
		if count > 0 {
			respondError(c, apierr.AlreadyExists("username"))
			return
		}
		updates["username"] = username
	}
	if body.InterestedExams != nil {
		exams := make(models.StringArray, 0, len(body.InterestedExams))
		for _, e := range body.InterestedExams {
			if e = strings.TrimSpace(e); e != "" {
				exams = append(exams, e)
			}
		}
		updates["interested_exams"] = exams
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		logger.Log.Error("Failed to update profile",
			zap.String("user_id", user.ID),
			zap.Error(err))
		respondError(c, apierr.InternalError("couldn't update the profile"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UploadAvatar replaces the caller's avatar image
func (h *Handlers) UploadAvatar(c *gin.Context) {
	user := auth.CurrentUser(c)

	if h.uploader == nil {
		respondError(c, apierr.BadRequest("media uploads are not available"))
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, apierr.ValidationError("avatar", "an image file is required"))
		return
	}
	if file.Size > maxMediaBytes {
		respondError(c, apierr.ValidationError("avatar", "image is too large"))
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, apierr.BadRequest("couldn't read the image"))
		return
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		respondError(c, apierr.BadRequest("couldn't read the image"))
		return
	}

	uploaded, err := h.uploader.UploadMedia(c.Request.Context(), data, user.ID, file.Filename)
	if err != nil {
		logger.Log.Error("Avatar upload failed", zap.Error(err))
		respondError(c, apierr.InternalError("avatar upload failed"))
		return
	}

	if err := database.DB.Model(user).UpdateColumn("avatar_key", uploaded.Key).Error; err != nil {
		respondError(c, apierr.InternalError("couldn't save the avatar"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"avatar_key": uploaded.Key,
		"avatar_url": h.uploader.ResolveURL(uploaded.Key),
	})
}
