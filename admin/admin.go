package admin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/models"
)

// AdminModule is the authoring and moderation tool. It is a thin layer over
// the same records the public blog serves: post editing with generated slugs
// and comment moderation (deactivate, never delete).
type AdminModule struct {
	db *gorm.DB
}

func NewAdminModule(db *gorm.DB) *AdminModule {
	return &AdminModule{db: db}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.GET("/logout", a.logout)

	adminGroup := router.Group("/admin")
	adminGroup.Use(a.requireAuth)
	{
		adminGroup.GET("/", a.dashboard)
		adminGroup.GET("/post/new", a.newPost)
		adminGroup.POST("/post/save", a.savePost)
		adminGroup.GET("/post/:id/edit", a.editPost)
		adminGroup.POST("/post/:id", a.updatePost)
		adminGroup.POST("/post/:id/delete", a.deletePost)
		adminGroup.GET("/comments", a.listComments)
		adminGroup.POST("/comment/:id/toggle", a.toggleComment)
	}
}

func (a *AdminModule) requireAuth(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")

	if userID == nil {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	c.Set("user_id", userID)
	c.Next()
}

func (a *AdminModule) loginPage(c *gin.Context) {
	session := sessions.Default(c)
	if session.Get("user_id") != nil {
		c.Redirect(http.StatusFound, "/admin/")
		return
	}

	c.HTML(http.StatusOK, "admin_login.html", gin.H{})
}

func (a *AdminModule) loginPost(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	var user models.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "admin_login.html", gin.H{
			"error": "Incorrect email or password",
			"email": email,
		})
		return
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		c.HTML(http.StatusUnauthorized, "admin_login.html", gin.H{
			"error": "Incorrect email or password",
			"email": email,
		})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/admin/")
}

func (a *AdminModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/login")
}

// dashboard lists every post with title, slug, author, publish and status,
// optionally filtered by status.
func (a *AdminModule) dashboard(c *gin.Context) {
	status := c.Query("status")

	query := a.db.Model(&models.Post{}).Preload("Author").Order("status ASC, publish ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "admin_error.html", gin.H{
			"error": "Error loading posts",
		})
		return
	}

	c.HTML(http.StatusOK, "admin_dashboard.html", gin.H{
		"posts":  posts,
		"status": status,
	})
}

func (a *AdminModule) newPost(c *gin.Context) {
	c.HTML(http.StatusOK, "admin_post_form.html", gin.H{
		"post":   &models.Post{},
		"action": "/admin/post/save",
	})
}

func (a *AdminModule) savePost(c *gin.Context) {
	userID := c.GetInt("user_id")

	title := c.PostForm("title")
	body := c.PostForm("body")
	action := c.PostForm("action")

	status := models.StatusDraft
	if action == "publish" {
		status = models.StatusPublished
	}

	post := models.Post{
		Title:    title,
		Slug:     GenerateSlug(title),
		AuthorID: userID,
		Body:     body,
		Publish:  parsePublish(c.PostForm("publish")),
		Status:   status,
	}

	if err := a.db.Create(&post).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "admin_error.html", gin.H{
			"error": "Error creating post: " + err.Error(),
		})
		return
	}

	c.Redirect(http.StatusFound, "/admin/")
}

func (a *AdminModule) editPost(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	if err := a.db.Where("id = ?", postID).First(&post).Error; err != nil {
		c.HTML(http.StatusNotFound, "admin_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}

	c.HTML(http.StatusOK, "admin_post_form.html", gin.H{
		"post":   &post,
		"action": "/admin/post/" + postID,
	})
}

func (a *AdminModule) updatePost(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	if err := a.db.Where("id = ?", postID).First(&post).Error; err != nil {
		c.HTML(http.StatusNotFound, "admin_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}

	post.Title = c.PostForm("title")
	post.Body = c.PostForm("body")
	if slug := c.PostForm("slug"); slug != "" {
		post.Slug = GenerateSlug(slug)
	}
	if publish := c.PostForm("publish"); publish != "" {
		post.Publish = parsePublish(publish)
	}

	switch c.PostForm("action") {
	case "publish":
		post.Status = models.StatusPublished
	case "save_draft":
		post.Status = models.StatusDraft
	}

	if err := a.db.Save(&post).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "admin_error.html", gin.H{
			"error": "Error saving post: " + err.Error(),
		})
		return
	}

	c.Redirect(http.StatusFound, "/admin/")
}

func (a *AdminModule) deletePost(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "admin_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}

	// Removes the post and every comment referencing it.
	if err := models.DeletePost(a.db, uint(postID)); err != nil {
		c.HTML(http.StatusInternalServerError, "admin_error.html", gin.H{
			"error": "Error deleting post",
		})
		return
	}

	c.Redirect(http.StatusFound, "/admin/")
}

// listComments shows name, email, post, created and active for every comment,
// optionally filtered by moderation state.
func (a *AdminModule) listComments(c *gin.Context) {
	query := a.db.Model(&models.Comment{}).Preload("Post").Order("created_at ASC")

	switch c.Query("active") {
	case "true":
		query = query.Where("active = ?", true)
	case "false":
		query = query.Where("active = ?", false)
	}

	var comments []models.Comment
	if err := query.Find(&comments).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "admin_error.html", gin.H{
			"error": "Error loading comments",
		})
		return
	}

	c.HTML(http.StatusOK, "admin_comments.html", gin.H{
		"comments": comments,
	})
}

// toggleComment flips a comment's active flag. Moderation hides comments, it
// never deletes them.
func (a *AdminModule) toggleComment(c *gin.Context) {
	commentID := c.Param("id")

	var comment models.Comment
	if err := a.db.Where("id = ?", commentID).First(&comment).Error; err != nil {
		c.HTML(http.StatusNotFound, "admin_error.html", gin.H{
			"error": "Comment not found",
		})
		return
	}

	if err := a.db.Model(&comment).Update("active", !comment.Active).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "admin_error.html", gin.H{
			"error": "Error updating comment",
		})
		return
	}

	c.Redirect(http.StatusFound, "/admin/comments")
}

func parsePublish(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	// datetime-local input format
	if t, err := time.ParseInLocation("2006-01-02T15:04", value, time.Local); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}

// GenerateSlug turns a title into its URL-safe form: lowercase ASCII letters,
// digits and single hyphens.
func GenerateSlug(title string) string {
	accentMap := map[rune]rune{
		'á': 'a', 'à': 'a', 'ã': 'a', 'â': 'a', 'ä': 'a',
		'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
		'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
		'ó': 'o', 'ò': 'o', 'õ': 'o', 'ô': 'o', 'ö': 'o',
		'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
		'ç': 'c', 'ñ': 'n', 'ý': 'y',
	}

	slug := strings.ToLower(title)
	slug = strings.Map(func(r rune) rune {
		if replacement, exists := accentMap[r]; exists {
			return replacement
		}
		return r
	}, slug)

	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		if r == ' ' {
			return '-'
		}
		return -1
	}, slug)

	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	return slug
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
