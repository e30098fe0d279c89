package blog

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"inkwell/email"
	"inkwell/forms"
	"inkwell/models"
	"inkwell/pagination"
)

const postsPerPage = 3

type BlogModule struct {
	db     *gorm.DB
	mailer email.Sender
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // allow raw HTML passthrough in Markdown
	),
)

// rendered post bodies pass through this policy before reaching a template
var ugc = bluemonday.UGCPolicy()

func NewBlogModule(db *gorm.DB, mailer email.Sender) *BlogModule {
	return &BlogModule{db: db, mailer: mailer}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	blogGroup := router.Group("/blog")
	{
		blogGroup.GET("", b.list)
		blogGroup.GET("/:year/:month/:day/:slug", b.detail)
		blogGroup.POST("/:year/:month/:day/:slug", b.detail)
	}

	router.GET("/share/:id", b.share)
	router.POST("/share/:id", b.share)
}

func (b *BlogModule) list(c *gin.Context) {
	posts, err := models.ListAll(b.db)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "blog_error.html", gin.H{
			"error": "Error loading posts",
		})
		return
	}

	// A missing or non-numeric page parameter falls back to page 1;
	// out-of-range numbers clamp inside Paginate. Never an error.
	number, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		number = 1
	}

	page := pagination.Paginate(posts, number, postsPerPage)

	c.HTML(http.StatusOK, "blog_list.html", gin.H{
		"posts": page.Items,
		"page":  page,
	})
}

func (b *BlogModule) getPostByDateSlug(year, month, day int, slug string) (*models.Post, error) {
	publishDay := fmt.Sprintf("%04d-%02d-%02d", year, month, day)

	var post models.Post
	err := b.db.Where("slug = ? AND status = ? AND publish_day = ?",
		slug, models.StatusDraft, publishDay).First(&post).Error
	return &post, err
}

func (b *BlogModule) detail(c *gin.Context) {
	year, errY := strconv.Atoi(c.Param("year"))
	month, errM := strconv.Atoi(c.Param("month"))
	day, errD := strconv.Atoi(c.Param("day"))
	slug := c.Param("slug")

	if errY != nil || errM != nil || errD != nil {
		c.HTML(http.StatusNotFound, "blog_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}

	post, err := b.getPostByDateSlug(year, month, day, slug)
	if err != nil {
		c.HTML(http.StatusNotFound, "blog_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}

	// The displayed list is fetched before any submission is persisted; a
	// comment added below is handed back separately as new_comment.
	comments, err := models.ActiveComments(b.db, post.ID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "blog_error.html", gin.H{
			"error": "Error loading comments",
		})
		return
	}

	var newComment *models.Comment
	commentForm := &forms.CommentForm{}

	if c.Request.Method == http.MethodPost {
		var submitted forms.CommentForm
		if err := c.ShouldBind(&submitted); err == nil {
			if errs := submitted.Validate(); len(errs) == 0 {
				comment := models.Comment{
					PostID: post.ID,
					Name:   submitted.Name,
					Email:  submitted.Email,
					Body:   submitted.Body,
				}
				if err := b.db.Create(&comment).Error; err != nil {
					c.HTML(http.StatusInternalServerError, "blog_error.html", gin.H{
						"error": "Error saving comment",
					})
					return
				}
				newComment = &comment
			}
		}
		// An invalid submission falls through with a fresh, empty form.
	}

	c.HTML(http.StatusOK, "blog_detail.html", gin.H{
		"post":         post,
		"bodyHTML":     template.HTML(renderMarkdown(post.Body)),
		"comments":     comments,
		"new_comment":  newComment,
		"comment_form": commentForm,
	})
}

func (b *BlogModule) share(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "blog_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}

	var post models.Post
	if err := b.db.Where("id = ? AND status = ?", postID, models.StatusDraft).
		First(&post).Error; err != nil {
		c.HTML(http.StatusNotFound, "blog_error.html", gin.H{
			"error": "Post not found",
		})
		return
	}

	form := &forms.ShareForm{}
	sent := false
	var cd *forms.ShareForm

	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBind(form); err != nil {
			c.HTML(http.StatusBadRequest, "blog_error.html", gin.H{
				"error": "Invalid form data",
			})
			return
		}

		errs := form.Validate()
		if len(errs) > 0 {
			c.HTML(http.StatusOK, "blog_share.html", gin.H{
				"post":   &post,
				"form":   form,
				"errors": errs,
				"sent":   false,
			})
			return
		}

		postURL := absoluteURL(&post)
		subject := fmt.Sprintf("%s (%s) recommends you reading %q", form.Name, form.Email, post.Title)
		message := fmt.Sprintf("Read %q at %s\n\n%s's comments: %s",
			post.Title, postURL, form.Name, form.Comments)

		// Dispatch failures are not recovered here; every resubmission
		// re-sends.
		if err := b.mailer.Send(subject, message, []string{form.To}); err != nil {
			c.HTML(http.StatusInternalServerError, "blog_error.html", gin.H{
				"error": "Error sending email",
			})
			return
		}

		sent = true
		cd = form
	}

	c.HTML(http.StatusOK, "blog_share.html", gin.H{
		"post": &post,
		"form": form,
		"sent": sent,
		"cd":   cd,
	})
}

func absoluteURL(post *models.Post) string {
	domain := os.Getenv("DOMAIN")
	if domain == "" {
		domain = "http://localhost:8080"
	}
	return strings.TrimSuffix(domain, "/") + post.URL()
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// On failure, fall back to the raw content so the page still renders.
		return ugc.Sanitize(content)
	}
	return ugc.Sanitize(buf.String())
}
