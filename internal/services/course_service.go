package services

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yudhapratama/learnhub/internal/models"
	"github.com/yudhapratama/learnhub/internal/uploads"
	apperrors "github.com/yudhapratama/learnhub/pkg/errors"
	"github.com/yudhapratama/learnhub/pkg/logger"
	"github.com/yudhapratama/learnhub/pkg/response"
)

const (
	defaultCoursePageSize = 10
	maxCoursePageSize     = 100
)

var errCourseNotFound = apperrors.New("NOT_FOUND", "Course not found", http.StatusNotFound)

// CourseInput carries the writable fields of a course.
type CourseInput struct {
	Title       string
	Description string
	Price       int64
	Tags        []string
}

// CourseService implements the catalog: listing with search and pagination,
// plus create/update/delete with cover image handling.
type CourseService struct {
	db     *gorm.DB
	images *uploads.Service
	log    *zap.Logger
}

// NewCourseService wires a CourseService from its dependencies.
func NewCourseService(db *gorm.DB, images *uploads.Service) (*CourseService, error) {
	if db == nil {
		return nil, errors.New("course service: db is required")
	}
	if images == nil {
		return nil, errors.New("course service: uploads service is required")
	}

	return &CourseService{
		db:     db,
		images: images,
		log:    logger.WithModule("services.course"),
	}, nil
}

// List returns a page of courses, optionally filtered by a case-insensitive
// search over title and description, newest first.
func (s *CourseService) List(ctx context.Context, page, perPage int, query string) ([]models.Course, *response.Meta, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultCoursePageSize
	}
	if perPage > maxCoursePageSize {
		perPage = maxCoursePageSize
	}

	tx := s.db.WithContext(ctx).Model(&models.Course{})
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to count courses")
	}

	var courses []models.Course
	if err := tx.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&courses).Error; err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to list courses")
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
	return courses, meta, nil
}

// Get loads a single course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCourseNotFound
		}
		return nil, apperrors.Wrap(err, "failed to load course")
	}
	return &course, nil
}

// Create stores the cover image and inserts the course. A course is never
// created without a cover.
func (s *CourseService) Create(ctx context.Context, input CourseInput, image *multipart.FileHeader) (*models.Course, error) {
	if image == nil {
		return nil, apperrors.NewBadRequest("Course image is required")
	}

	filename, err := s.images.Store(image)
	if err != nil {
		return nil, err
	}

	course := models.Course{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price,
		Image:       filename,
		Tags:        datatypes.NewJSONSlice(input.Tags),
	}

	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		if removeErr := s.images.Remove(filename); removeErr != nil {
			s.log.Warn("orphaned course image", zap.String("image", filename), zap.Error(removeErr))
		}
		return nil, apperrors.Wrap(err, "failed to create course")
	}

	return &course, nil
}

// Update modifies a course. When a new image is supplied the old one is
// replaced on disk after the row update succeeds.
func (s *CourseService) Update(ctx context.Context, id string, input CourseInput, image *multipart.FileHeader) (*models.Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldImage := ""
	if image != nil {
		filename, err := s.images.Store(image)
		if err != nil {
			return nil, err
		}
		oldImage = course.Image
		course.Image = filename
	}

	course.Title = strings.TrimSpace(input.Title)
	course.Description = input.Description
	course.Price = input.Price
	course.Tags = datatypes.NewJSONSlice(input.Tags)

	if err := s.db.WithContext(ctx).Save(course).Error; err != nil {
		if image != nil {
			if removeErr := s.images.Remove(course.Image); removeErr != nil {
				s.log.Warn("orphaned course image", zap.String("image", course.Image), zap.Error(removeErr))
			}
		}
		return nil, apperrors.Wrap(err, "failed to update course")
	}

	if oldImage != "" && oldImage != course.Image {
		if err := s.images.Remove(oldImage); err != nil {
			s.log.Warn("stale course image not removed", zap.String("image", oldImage), zap.Error(err))
		}
	}

	return course, nil
}

// Delete removes a course and its cover image.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	course, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Course{}, "id = ?", id).Error; err != nil {
		return apperrors.Wrap(err, "failed to delete course")
	}

	if course.Image != "" {
		if err := s.images.Remove(course.Image); err != nil {
			s.log.Warn("stale course image not removed", zap.String("image", course.Image), zap.Error(err))
		}
	}
	return nil
}
