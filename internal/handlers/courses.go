package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yudhapratama/learnhub/internal/models"
	"github.com/yudhapratama/learnhub/internal/services"
	"github.com/yudhapratama/learnhub/pkg/response"
)

// CourseHandler serves the course catalog.
type CourseHandler struct {
	courses *services.CourseService
	baseURL string
}

// NewCourseHandler wires a CourseHandler. baseURL is the public address the
// API is reachable on, used to derive image URLs.
func NewCourseHandler(courses *services.CourseService, baseURL string) *CourseHandler {
	return &CourseHandler{
		courses: courses,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type courseForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"max=5000"`
	Price       int64  `form:"price" validate:"gte=0"`
	Tags        string `form:"tags"`
}

func (f courseForm) toInput() services.CourseInput {
	var tags []string
	for _, tag := range strings.Split(f.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return services.CourseInput{
		Title:       f.Title,
		Description: f.Description,
		Price:       f.Price,
		Tags:        tags,
	}
}

// GET /api/courses?page=&per_page=&q=
func (h *CourseHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 10)

	courses, meta, err := h.courses.List(c.Request.Context(), page, perPage, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}

	views := make([]gin.H, 0, len(courses))
	for i := range courses {
		views = append(views, h.courseView(&courses[i]))
	}
	response.SuccessWithMeta(c, http.StatusOK, views, meta)
}

// GET /api/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.courseView(course))
}

// POST /api/courses (multipart)
func (h *CourseHandler) Create(c *gin.Context) {
	var form courseForm
	if !bindFormAndValidate(c, &form) {
		return
	}

	course, err := h.courses.Create(c.Request.Context(), form.toInput(), imageFromForm(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, h.courseView(course))
}

// PATCH /api/courses/:id (multipart, image optional)
func (h *CourseHandler) Update(c *gin.Context) {
	var form courseForm
	if !bindFormAndValidate(c, &form) {
		return
	}

	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), form.toInput(), imageFromForm(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, h.courseView(course))
}

// DELETE /api/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *CourseHandler) courseView(course *models.Course) gin.H {
	view := gin.H{
		"id":          course.ID,
		"title":       course.Title,
		"description": course.Description,
		"price":       course.Price,
		"tags":        course.Tags,
		"created_at":  course.CreatedAt,
		"updated_at":  course.UpdatedAt,
	}
	if course.Image != "" {
		view["image_url"] = fmt.Sprintf("%s/uploads/courses/%s", h.baseURL, course.Image)
	}
	return view
}

func imageFromForm(c *gin.Context) *multipart.FileHeader {
	file, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	return file
}
