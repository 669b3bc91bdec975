package repository

import (
	"context"
	"errors"

	"fixpoint/internal/models"

	"gorm.io/gorm"
)

// BlogRepository defines persistence operations for blog posts and categories.
type BlogRepository interface {
	CreatePost(ctx context.Context, post *models.BlogPost) error
	UpdatePost(ctx context.Context, post *models.BlogPost) error
	DeletePost(ctx context.Context, id uint) error
	GetPostByID(ctx context.Context, id uint) (*models.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	ListPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.BlogPost, int64, error)

	CreateCategory(ctx context.Context, cat *models.BlogCategory) error
	UpdateCategory(ctx context.Context, cat *models.BlogCategory) error
	DeleteCategory(ctx context.Context, id uint) error
	ListCategories(ctx context.Context) ([]models.BlogCategory, error)
}

type blogRepository struct {
	db *gorm.DB
}

// NewBlogRepository returns a new BlogRepository implementation.
func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

func (r *blogRepository) CreatePost(ctx context.Context, post *models.BlogPost) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A post with that slug already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blogRepository) UpdatePost(ctx context.Context, post *models.BlogPost) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A post with that slug already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blogRepository) DeletePost(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.BlogPost{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blogRepository) GetPostByID(ctx context.Context, id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := r.db.WithContext(ctx).
		Preload("Category").
		First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Blog post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *blogRepository) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Where("slug = ?", slug).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Blog post", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *blogRepository) ListPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.BlogPost, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.BlogPost{})
	if publishedOnly {
		q = q.Where("published = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.BlogPost
	if err := q.
		Preload("Category").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

func (r *blogRepository) CreateCategory(ctx context.Context, cat *models.BlogCategory) error {
	if err := r.db.WithContext(ctx).Create(cat).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A category with that slug already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blogRepository) UpdateCategory(ctx context.Context, cat *models.BlogCategory) error {
	if err := r.db.WithContext(ctx).Save(cat).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A category with that slug already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blogRepository) DeleteCategory(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Posts keep existing but lose the category reference.
		if err := tx.Model(&models.BlogPost{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BlogCategory{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *blogRepository) ListCategories(ctx context.Context) ([]models.BlogCategory, error) {
	var cats []models.BlogCategory
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return cats, nil
}
