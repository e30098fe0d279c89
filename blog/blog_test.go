package blog

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inkwell/models"
)

type fakeSender struct {
	calls   int
	subject string
	body    string
	to      []string
	err     error
}

func (f *fakeSender) Send(subject, body string, to []string) error {
	f.calls++
	f.subject = subject
	f.body = body
	f.to = to
	return f.err
}

func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{})
	return db
}

func setupTestRouter(blogModule *BlogModule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.LoadHTMLGlob("views/*.html")
	blogModule.RegisterRoutes(router)
	return router
}

func createTestUser(db *gorm.DB) *models.User {
	user := &models.User{
		Email:        "author@example.com",
		PasswordHash: "hashedpassword",
	}
	db.Create(user)
	return user
}

func createTestPost(db *gorm.DB, authorID int, slug, status string, publish time.Time) *models.Post {
	post := &models.Post{
		Title:    "Post " + slug,
		Slug:     slug,
		AuthorID: authorID,
		Body:     "Body of " + slug,
		Publish:  publish,
		Status:   status,
	}
	db.Create(post)
	return post
}

func postForm(router *gin.Engine, path string, values url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedPosts(db *gorm.DB, authorID, n int) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		createTestPost(db, authorID, fmt.Sprintf("post-%d", i), models.StatusDraft, base.AddDate(0, 0, i))
	}
}

func TestList_FirstPageByDefault(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	seedPosts(db, user.ID, 7)

	w := get(router, "/blog")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Page 1 of 3")
	assert.Contains(t, w.Body.String(), "Post post-1")
	assert.NotContains(t, w.Body.String(), "Post post-4")
}

func TestList_LastPageHasSinglePost(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	seedPosts(db, user.ID, 7)

	w := get(router, "/blog?page=3")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Page 3 of 3")
	assert.Contains(t, w.Body.String(), "Post post-7")
	assert.NotContains(t, w.Body.String(), "Post post-6")
}

func TestList_NonNumericPageFallsBackToFirst(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	seedPosts(db, user.ID, 7)

	w := get(router, "/blog?page=abc")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Page 1 of 3")
}

func TestList_PagePastEndClampsToLast(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	seedPosts(db, user.ID, 7)

	w := get(router, "/blog?page=99")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Page 3 of 3")
	assert.Contains(t, w.Body.String(), "Post post-7")
}

func TestList_IncludesDraftAndPublished(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	createTestPost(db, user.ID, "a-draft", models.StatusDraft, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	createTestPost(db, user.ID, "a-published", models.StatusPublished, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))

	w := get(router, "/blog")

	assert.Contains(t, w.Body.String(), "Post a-draft")
	assert.Contains(t, w.Body.String(), "Post a-published")
}

func TestDetail_Success(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	createTestPost(db, user.ID, "hello", models.StatusDraft, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := get(router, "/blog/2026/05/04/hello")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Post hello")
	assert.Contains(t, w.Body.String(), "Body of hello")
}

func TestDetail_NotFoundWhenOnlyPublishedMatches(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	createTestPost(db, user.ID, "hello", models.StatusPublished, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := get(router, "/blog/2026/05/04/hello")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDetail_NotFoundWrongDate(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	createTestPost(db, user.ID, "hello", models.StatusDraft, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := get(router, "/blog/2026/05/05/hello")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDetail_ShowsOnlyActiveComments(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	post := createTestPost(db, user.ID, "hello", models.StatusDraft, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	db.Create(&models.Comment{PostID: post.ID, Name: "Ana", Email: "ana@example.com", Body: "visible comment"})
	hidden := &models.Comment{PostID: post.ID, Name: "Troll", Email: "troll@example.com", Body: "moderated away"}
	db.Create(hidden)
	db.Model(hidden).Update("active", false)

	w := get(router, "/blog/2026/05/04/hello")

	assert.Contains(t, w.Body.String(), "visible comment")
	assert.NotContains(t, w.Body.String(), "moderated away")
}

func TestDetail_CommentSubmission(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	post := createTestPost(db, user.ID, "hello", models.StatusDraft, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := postForm(router, "/blog/2026/05/04/hello", url.Values{
		"name":  {"Ana"},
		"email": {"ana@example.com"},
		"body":  {"Great read!"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your comment has been added.")

	var count int64
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDetail_InvalidCommentDiscarded(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	post := createTestPost(db, user.ID, "hello", models.StatusDraft, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := postForm(router, "/blog/2026/05/04/hello", url.Values{
		"name":  {"Ana"},
		"email": {"not-an-email"},
		"body":  {"Great read!"},
	})

	// The page re-renders with a fresh form; nothing is persisted and the
	// invalid input is not echoed back.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Your comment has been added.")
	assert.NotContains(t, w.Body.String(), "Great read!")

	var count int64
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestShare_GetShowsForm(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	post := createTestPost(db, user.ID, "hello", models.StatusDraft, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := get(router, fmt.Sprintf("/share/%d", post.ID))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "by e-mail")
}

func TestShare_NotFoundWhenOnlyPublishedMatches(t *testing.T) {
	db := setupTestDB()
	router := setupTestRouter(NewBlogModule(db, &fakeSender{}))
	user := createTestUser(db)
	post := createTestPost(db, user.ID, "hello", models.StatusPublished, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := get(router, fmt.Sprintf("/share/%d", post.ID))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShare_SendsEmailOnce(t *testing.T) {
	db := setupTestDB()
	sender := &fakeSender{}
	router := setupTestRouter(NewBlogModule(db, sender))
	user := createTestUser(db)
	post := createTestPost(db, user.ID, "hello", models.StatusDraft, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := postForm(router, fmt.Sprintf("/share/%d", post.ID), url.Values{
		"name":     {"Ana"},
		"email":    {"ana@example.com"},
		"to":       {"friend@example.com"},
		"comments": {"worth your time"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "successfully sent")

	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, []string{"friend@example.com"}, sender.to)
	assert.Contains(t, sender.subject, "Ana (ana@example.com) recommends you reading")
	assert.Contains(t, sender.body, "/blog/2026/05/04/hello")
	assert.Contains(t, sender.body, "Ana's comments: worth your time")
}

func TestShare_ValidationFailureDoesNotDispatch(t *testing.T) {
	db := setupTestDB()
	sender := &fakeSender{}
	router := setupTestRouter(NewBlogModule(db, sender))
	user := createTestUser(db)
	post := createTestPost(db, user.ID, "hello", models.StatusDraft, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := postForm(router, fmt.Sprintf("/share/%d", post.ID), url.Values{
		"name":  {"Ana"},
		"email": {"ana@example.com"},
		// recipient missing
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "This field is required.")
	assert.NotContains(t, w.Body.String(), "successfully sent")
	assert.Equal(t, 0, sender.calls)
}

func TestShare_DispatchFailurePropagates(t *testing.T) {
	db := setupTestDB()
	sender := &fakeSender{err: errors.New("smtp down")}
	router := setupTestRouter(NewBlogModule(db, sender))
	user := createTestUser(db)
	post := createTestPost(db, user.ID, "hello", models.StatusDraft, time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	w := postForm(router, fmt.Sprintf("/share/%d", post.ID), url.Values{
		"name":  {"Ana"},
		"email": {"ana@example.com"},
		"to":    {"friend@example.com"},
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, sender.calls)
	assert.NotContains(t, w.Body.String(), "successfully sent")
}

func TestRenderMarkdown(t *testing.T) {
	result := renderMarkdown("# Title\n\nSome **bold** text.")

	assert.Contains(t, result, "<h1>Title</h1>")
	assert.Contains(t, result, "<strong>bold</strong>")
}

func TestRenderMarkdownStripsScript(t *testing.T) {
	result := renderMarkdown("hello <script>alert(1)</script> world")

	assert.NotContains(t, result, "<script>")
}
