package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/models"
	"gorm.io/gorm"
)

func (s *HandlersTestSuite) postMultipart(path, token string, fields map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) TestCreatePost() {
	user := s.createUser("asha")
	token := s.tokenFor(user)

	w := s.postMultipart("/api/v1/posts", token, map[string]string{
		"title":     "How to revise Organic Chemistry",
		"content":   "Sharing my 30-day plan",
		"exam_type": "NEET",
		"tags":      "Chemistry, Revision",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var resp struct {
		Post models.Post `json:"post"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.NotEmpty(resp.Post.ID)
	s.Require().NotNil(resp.Post.Slug)
	s.Contains(*resp.Post.Slug, "how-to-revise-organic-chemistry")

	// Tags are stored lowercased
	var tags []models.Tag
	s.Require().NoError(s.db.Order("name").Find(&tags).Error)
	s.Require().Len(tags, 2)
	s.Equal("chemistry", tags[0].Name)
	s.Equal("revision", tags[1].Name)
	s.Equal(1, tags[0].PostCount)

	// Author's counter moves with the post
	var fresh models.User
	s.Require().NoError(s.db.First(&fresh, "id = ?", user.ID).Error)
	s.Equal(1, fresh.PostCount)
}

func (s *HandlersTestSuite) TestCreatePostRequiresContent() {
	user := s.createUser("asha")
	w := s.postMultipart("/api/v1/posts", s.tokenFor(user), map[string]string{
		"title":   "   ",
		"content": "",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersTestSuite) TestCreatePostRequiresAuth() {
	w := s.postMultipart("/api/v1/posts", "bad-token", map[string]string{
		"title": "hello",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestGetPostByIDAndSlug() {
	author := s.createUser("asha")
	slug := "physics-shortcuts-abc123"
	post := s.createPost(author, "Physics shortcuts", time.Now().UTC())
	s.Require().NoError(s.db.Model(&post).UpdateColumn("slug", slug).Error)

	w := s.request(http.MethodGet, "/api/v1/posts/"+post.ID, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Post struct {
			Post   models.Post  `json:"post"`
			Author *models.User `json:"author"`
		} `json:"post"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(post.ID, resp.Post.Post.ID)
	s.Require().NotNil(resp.Post.Author)
	s.Equal("asha", resp.Post.Author.Username)

	w = s.request(http.MethodGet, "/api/v1/posts/slug/"+slug, nil, "")
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/posts/slug/nope", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestDeletePostOwnership() {
	author := s.createUser("asha")
	other := s.createUser("rohan")
	post := s.createPost(author, "mine", time.Now().UTC())

	w := s.request(http.MethodDelete, "/api/v1/posts/"+post.ID, nil, s.tokenFor(other))
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/posts/"+post.ID, nil, s.tokenFor(author))
	s.Require().Equal(http.StatusOK, w.Code)

	var gone models.Post
	err := s.db.First(&gone, "id = ?", post.ID).Error
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *HandlersTestSuite) TestRecordView() {
	author := s.createUser("asha")
	post := s.createPost(author, "viewed", time.Now().UTC())

	// Without Redis there's no dedupe window, every view counts
	w := s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/view", nil, "")
	s.Equal(http.StatusOK, w.Code)

	viewer := s.createUser("rohan")
	w = s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/view", nil, s.tokenFor(viewer))
	s.Equal(http.StatusOK, w.Code)

	var views []models.PostView
	s.Require().NoError(s.db.Where("post_id = ?", post.ID).Find(&views).Error)
	s.Require().Len(views, 2)

	var anon, named int
	for _, v := range views {
		if v.UserID == nil {
			anon++
		} else {
			named++
		}
	}
	s.Equal(1, anon)
	s.Equal(1, named)
}

func (s *HandlersTestSuite) TestCommentsFlow() {
	author := s.createUser("asha")
	commenter := s.createUser("rohan")
	post := s.createPost(author, "discuss", time.Now().UTC())
	token := s.tokenFor(commenter)

	// Top-level comment
	body := bytes.NewBufferString(`{"content": "great notes!"}`)
	w := s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", body, token)
	s.Require().Equal(http.StatusCreated, w.Code)

	var created struct {
		Comment models.Comment `json:"comment"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.Nil(created.Comment.ParentID)

	// Threaded reply
	payload, _ := json.Marshal(map[string]string{
		"content":   "agreed",
		"parent_id": created.Comment.ID,
	})
	w = s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", bytes.NewReader(payload), s.tokenFor(author))
	s.Require().Equal(http.StatusCreated, w.Code)

	var fresh models.Post
	s.Require().NoError(s.db.First(&fresh, "id = ?", post.ID).Error)
	s.Equal(2, fresh.CommentCount)

	// Listing is oldest-first with authors attached
	w = s.request(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	var listed struct {
		Comments []models.Comment `json:"comments"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &listed))
	s.Require().Len(listed.Comments, 2)
	s.Equal("great notes!", listed.Comments[0].Content)
	s.Equal("rohan", listed.Comments[0].User.Username)

	// Deleting keeps the row for thread structure but hides the text
	w = s.request(http.MethodDelete, "/api/v1/comments/"+created.Comment.ID, nil, token)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", nil, "")
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &listed))
	s.Require().Len(listed.Comments, 2)
	s.True(listed.Comments[0].IsDeleted)
	s.Empty(listed.Comments[0].Content)
}

func (s *HandlersTestSuite) TestCommentRejectsForeignParent() {
	author := s.createUser("asha")
	postA := s.createPost(author, "post a", time.Now().UTC())
	postB := s.createPost(author, "post b", time.Now().UTC())

	comment := models.Comment{PostID: postA.ID, UserID: author.ID, Content: "on A"}
	s.Require().NoError(s.db.Create(&comment).Error)

	payload, _ := json.Marshal(map[string]string{
		"content":   "cross-thread reply",
		"parent_id": comment.ID,
	})
	w := s.request(http.MethodPost, "/api/v1/posts/"+postB.ID+"/comments", bytes.NewReader(payload), s.tokenFor(author))
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}
