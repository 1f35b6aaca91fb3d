package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
)

type feedResponse struct {
	Posts []struct {
		Post  models.Post `json:"post"`
		Score float64     `json:"score"`
		Eager bool        `json:"eager"`
	} `json:"posts"`
	NextCursor    string `json:"next_cursor"`
	HasNext       bool   `json:"has_next"`
	RemainderPush bool   `json:"remainder_push"`
}

func (s *HandlersTestSuite) TestAnonymousFeedIsBounded() {
	author := s.createUser("writer")
	now := time.Now().UTC()
	for i := 0; i < 15; i++ {
		post := s.createPost(author, fmt.Sprintf("post %02d", i), now.Add(-time.Duration(i)*time.Hour))
		s.db.Model(&post).UpdateColumn("like_count", i+1)
	}

	w := s.request(http.MethodGet, "/api/v1/feed", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp feedResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.LessOrEqual(len(resp.Posts), 10)
	s.NotEmpty(resp.Posts)
	s.False(resp.HasNext)
}

func (s *HandlersTestSuite) TestAuthenticatedFeedPaginates() {
	author := s.createUser("writer")
	reader := s.createUser("reader")
	token := s.tokenFor(reader)

	now := time.Now().UTC()
	for i := 0; i < 25; i++ {
		s.createPost(author, fmt.Sprintf("post %02d", i), now.Add(-time.Duration(i)*time.Minute))
	}

	seen := make(map[string]struct{})
	cursor := ""
	pages := 0
	for {
		path := "/api/v1/feed"
		if cursor != "" {
			path += "?cursor=" + url.QueryEscape(cursor)
		}
		w := s.request(http.MethodGet, path, nil, token)
		s.Require().Equal(http.StatusOK, w.Code)

		var resp feedResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		pages++

		for _, item := range resp.Posts {
			_, dup := seen[item.Post.ID]
			s.False(dup, "post %s appeared on two pages", item.Post.ID)
			seen[item.Post.ID] = struct{}{}
		}

		if !resp.HasNext {
			s.Empty(resp.NextCursor)
			break
		}
		s.Require().NotEmpty(resp.NextCursor)
		cursor = resp.NextCursor
	}

	s.Equal(3, pages)
	s.Len(seen, 25)
}

func (s *HandlersTestSuite) TestFeedRejectsMalformedCursor() {
	reader := s.createUser("reader")
	w := s.request(http.MethodGet, "/api/v1/feed?cursor=%21%21not-base64", nil, s.tokenFor(reader))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestFeedInitialReturnsEagerBatch() {
	author := s.createUser("writer")
	now := time.Now().UTC()
	for i := 0; i < 8; i++ {
		post := s.createPost(author, fmt.Sprintf("post %02d", i), now.Add(-time.Duration(i)*time.Hour))
		s.db.Model(&post).UpdateColumn("like_count", 1)
	}

	w := s.request(http.MethodGet, "/api/v1/feed/initial", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp feedResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.LessOrEqual(len(resp.Posts), 2)
	s.NotEmpty(resp.Posts)
	for _, item := range resp.Posts {
		s.True(item.Eager)
	}
	// No WebSocket session, so the remainder can't be pushed anywhere
	s.False(resp.RemainderPush)
}

func (s *HandlersTestSuite) TestFeedHonorsExamFilter() {
	author := s.createUser("writer")
	now := time.Now().UTC()

	jee := s.createPost(author, "jee post", now.Add(-time.Hour))
	s.db.Model(&jee).UpdateColumn("like_count", 3)

	neet := s.createPost(author, "neet post", now.Add(-2*time.Hour))
	s.db.Model(&neet).Updates(map[string]interface{}{"exam_type": "NEET", "like_count": 5})

	w := s.request(http.MethodGet, "/api/v1/feed?exams=neet", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp feedResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Posts, 1)
	s.Equal(neet.ID, resp.Posts[0].Post.ID)
}

func (s *HandlersTestSuite) TestTrendingTags() {
	for i, name := range []string{"physics", "chemistry", "maths"} {
		tag := models.Tag{Name: name, PostCount: 10 - i, LastUsedAt: time.Now().UTC()}
		s.Require().NoError(s.db.Create(&tag).Error)
	}

	w := s.request(http.MethodGet, "/api/v1/feed/tags/trending?limit=2", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Tags []models.Tag `json:"tags"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Tags, 2)
	s.Equal("physics", resp.Tags[0].Name)
	s.Equal("chemistry", resp.Tags[1].Name)
}
