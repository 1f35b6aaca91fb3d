// Package handlers contains the HTTP API: feed assembly endpoints, posts,
// social actions, comments, profiles, and authentication.
package handlers

import (
	"github.com/Srimanrao123/CollegeDost-sub000/internal/auth"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/cache"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/config"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/feed"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/realtime"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	cfg      *config.Config
	auth     *auth.Service
	pipeline *feed.Pipeline
	store    *feed.FilterStore
	bus      *realtime.Bus
	hub      *realtime.Hub
	uploader *storage.MediaUploader
	redis    *cache.RedisClient
}

// NewHandlers creates a new handlers instance
func NewHandlers(cfg *config.Config, authSvc *auth.Service, pipeline *feed.Pipeline, store *feed.FilterStore, bus *realtime.Bus) *Handlers {
	return &Handlers{
		cfg:      cfg,
		auth:     authSvc,
		pipeline: pipeline,
		store:    store,
		bus:      bus,
	}
}

// SetHub sets the WebSocket hub for real-time delivery
func (h *Handlers) SetHub(hub *realtime.Hub) {
	h.hub = hub
}

// SetUploader sets the media uploader
func (h *Handlers) SetUploader(uploader *storage.MediaUploader) {
	h.uploader = uploader
}

// SetRedis sets the cache client
func (h *Handlers) SetRedis(redis *cache.RedisClient) {
	h.redis = redis
}
