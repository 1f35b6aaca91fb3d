package handlers

import (
	"net/http"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/apierr"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/auth"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/cache"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/database"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/feed"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetFeed serves the assembled feed. Anonymous sessions get a bounded
// prefix with no paging; authenticated sessions get cursor-mode pages.
func (h *Handlers) GetFeed(c *gin.Context) {
	state := parseFilterState(c)
	userID := auth.CurrentUserID(c)

	// Record the latest selection so realtime-triggered refreshes re-run
	// under the filters the client is actually looking at
	h.store.Set(state)

	if userID == "" {
		result, err := h.pipeline.Run(c.Request.Context(), state)
		if err != nil {
			respondError(c, apierr.InternalError("couldn't load the feed right now"))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"posts":    feed.BoundedPage(result.Primary, h.pipeline.Options().AnonymousCap),
			"related":  result.Related,
			"has_next": false,
		})
		return
	}

	var after *feed.Cursor
	if token := c.Query("cursor"); token != "" {
		cur, err := feed.DecodeCursor(token)
		if err != nil {
			respondError(c, apierr.BadRequest("invalid cursor"))
			return
		}
		after = &cur
	}

	pager := feed.NewCursorPager(database.DB, feed.NewEnricher(database.DB), h.pipeline.Options().PageSize)
	page, err := pager.FetchPage(c.Request.Context(), after, state)
	if err != nil {
		respondError(c, apierr.InternalError("couldn't load more posts, try again"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":       page.Items,
		"next_cursor": page.NextCursor,
		"has_next":    page.HasNext,
	})
}

// GetFeedInitial serves the two-stage progressive load: a tiny eager batch
// in the response body, with the remainder pushed over the user's WebSocket
// connection when the background pass completes
func (h *Handlers) GetFeedInitial(c *gin.Context) {
	state := parseFilterState(c)
	userID := auth.CurrentUserID(c)

	h.store.Set(state)

	result, err := h.pipeline.RunProgressive(c.Request.Context(), state)
	if err != nil {
		respondError(c, apierr.InternalError("couldn't load the feed right now"))
		return
	}

	go func() {
		remainder, ok := <-result.Rest
		if !ok || len(remainder) == 0 {
			return
		}
		if h.hub == nil || userID == "" {
			return
		}
		h.hub.SendToUser(userID, realtime.NewMessage(realtime.MessageTypeFeedRemainder, gin.H{
			"posts": remainder,
		}))
	}()

	c.JSON(http.StatusOK, gin.H{
		"posts":          result.Initial,
		"remainder_push": userID != "" && h.hub != nil,
	})
}

// GetRelatedPosts serves the loose-match fallback surface used when a
// search query finds nothing. It is never merged into the main feed.
func (h *Handlers) GetRelatedPosts(c *gin.Context) {
	state := parseFilterState(c)

	result, err := h.pipeline.Run(c.Request.Context(), state)
	if err != nil {
		respondError(c, apierr.InternalError("couldn't load related posts"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"related": result.Related})
}

// GetTrendingTags returns the most used tags, served from cache when warm
func (h *Handlers) GetTrendingTags(c *gin.Context) {
	limit := parseInt(c.Query("limit"), 10)
	if limit < 1 || limit > 50 {
		limit = 10
	}

	if h.redis != nil {
		if cached := h.redis.GetTrendingTags(c.Request.Context()); len(cached) >= limit {
			c.JSON(http.StatusOK, gin.H{"tags": cached[:limit]})
			return
		}
	}

	var tags []models.Tag
	err := database.DB.WithContext(c.Request.Context()).
		Order("post_count DESC, last_used_at DESC").
		Limit(limit).
		Find(&tags).Error
	if err != nil {
		logger.Log.Error("Failed to load trending tags", zap.Error(err))
		respondError(c, apierr.InternalError("couldn't load trending tags"))
		return
	}

	if h.redis != nil {
		cached := make([]cache.TrendingTag, 0, len(tags))
		for _, t := range tags {
			cached = append(cached, cache.TrendingTag{Name: t.Name, PostCount: t.PostCount})
		}
		h.redis.SetTrendingTags(c.Request.Context(), cached)
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
