package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
)

func (s *HandlersTestSuite) likeCount(postID string) int {
	var post models.Post
	s.Require().NoError(s.db.First(&post, "id = ?", postID).Error)
	return post.LikeCount
}

func (s *HandlersTestSuite) TestLikeUnlikeFlow() {
	author := s.createUser("asha")
	liker := s.createUser("rohan")
	post := s.createPost(author, "likeable", time.Now().UTC())
	token := s.tokenFor(liker)

	w := s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "liked")
	s.Equal(1, s.likeCount(post.ID))

	// A repeat like is a no-op and the optimistic bump is reverted
	w = s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "already_liked")
	s.Equal(1, s.likeCount(post.ID))

	w = s.request(http.MethodDelete, "/api/v1/posts/"+post.ID+"/like", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(0, s.likeCount(post.ID))

	// Unliking something never liked reverts the optimistic drop
	w = s.request(http.MethodDelete, "/api/v1/posts/"+post.ID+"/like", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "not_liked")
	s.Equal(0, s.likeCount(post.ID))
}

func (s *HandlersTestSuite) TestLikeMissingPost() {
	user := s.createUser("rohan")
	w := s.request(http.MethodPost, "/api/v1/posts/does-not-exist/like", nil, s.tokenFor(user))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestFollowUnfollowFlow() {
	follower := s.createUser("rohan")
	followee := s.createUser("asha")
	token := s.tokenFor(follower)

	w := s.request(http.MethodPost, "/api/v1/social/follow/"+followee.ID, nil, token)
	s.Require().Equal(http.StatusOK, w.Code)

	var a, b models.User
	s.Require().NoError(s.db.First(&a, "id = ?", followee.ID).Error)
	s.Require().NoError(s.db.First(&b, "id = ?", follower.ID).Error)
	s.Equal(1, a.FollowerCount)
	s.Equal(1, b.FollowingCount)

	// Repeat follow doesn't double-count
	w = s.request(http.MethodPost, "/api/v1/social/follow/"+followee.ID, nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "already_following")
	s.Require().NoError(s.db.First(&a, "id = ?", followee.ID).Error)
	s.Equal(1, a.FollowerCount)

	w = s.request(http.MethodDelete, "/api/v1/social/follow/"+followee.ID, nil, token)
	s.Require().Equal(http.StatusOK, w.Code)

	s.Require().NoError(s.db.First(&a, "id = ?", followee.ID).Error)
	s.Require().NoError(s.db.First(&b, "id = ?", follower.ID).Error)
	s.Equal(0, a.FollowerCount)
	s.Equal(0, b.FollowingCount)

	w = s.request(http.MethodDelete, "/api/v1/social/follow/"+followee.ID, nil, token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "not_following")
}

func (s *HandlersTestSuite) TestFollowSelfRejected() {
	user := s.createUser("rohan")
	w := s.request(http.MethodPost, "/api/v1/social/follow/"+user.ID, nil, s.tokenFor(user))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestProfileShowsFollowState() {
	follower := s.createUser("rohan")
	followee := s.createUser("asha")
	token := s.tokenFor(follower)

	w := s.request(http.MethodPost, "/api/v1/social/follow/"+followee.ID, nil, token)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/users/asha", nil, token)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		User        models.User `json:"user"`
		IsFollowing bool        `json:"is_following"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("asha", resp.User.Username)
	s.True(resp.IsFollowing)
}

func (s *HandlersTestSuite) TestUpdateProfile() {
	user := s.createUser("rohan")
	token := s.tokenFor(user)

	payload := `{"display_name": "Rohan S", "bio": "NEET 2027 aspirant", "interested_exams": ["NEET", "JEE"]}`
	req := s.request(http.MethodPut, "/api/v1/users/me", jsonBody(payload), token)
	s.Require().Equal(http.StatusOK, req.Code)

	var fresh models.User
	s.Require().NoError(s.db.First(&fresh, "id = ?", user.ID).Error)
	s.Equal("Rohan S", fresh.DisplayName)
	s.Equal("NEET 2027 aspirant", fresh.Bio)
	s.Len(fresh.InterestedExams, 2)
}

func (s *HandlersTestSuite) TestUpdateProfileUsernameTaken() {
	s.createUser("asha")
	user := s.createUser("rohan")

	req := s.request(http.MethodPut, "/api/v1/users/me", jsonBody(`{"username": "asha"}`), s.tokenFor(user))
	s.Equal(http.StatusConflict, req.Code)
}
