package service

import (
	"context"
	"strings"
	"unicode"

	"fixpoint/internal/models"
	"fixpoint/internal/repository"
	"fixpoint/internal/validation"
)

type BlogService struct {
	blogRepo repository.BlogRepository
}

type PostInput struct {
	Title      string `validate:"required,max=200"`
	Content    string `validate:"required"`
	CategoryID *uint
	Published  bool
}

func NewBlogService(blogRepo repository.BlogRepository) *BlogService {
	return &BlogService{blogRepo: blogRepo}
}

func (s *BlogService) CreatePost(ctx context.Context, authorID uint, in PostInput) (*models.BlogPost, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.BlogPost{
		Title:      in.Title,
		Slug:       Slugify(in.Title),
		Content:    in.Content,
		CategoryID: in.CategoryID,
		AuthorID:   authorID,
		Published:  in.Published,
	}
	if err := s.blogRepo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *BlogService) UpdatePost(ctx context.Context, id uint, in PostInput) (*models.BlogPost, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post, err := s.blogRepo.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != post.Title {
		post.Title = in.Title
		post.Slug = Slugify(in.Title)
	}
	post.Content = in.Content
	post.CategoryID = in.CategoryID
	post.Published = in.Published

	if err := s.blogRepo.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *BlogService) DeletePost(ctx context.Context, id uint) error {
	if _, err := s.blogRepo.GetPostByID(ctx, id); err != nil {
		return err
	}
	return s.blogRepo.DeletePost(ctx, id)
}

func (s *BlogService) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return s.blogRepo.GetPostBySlug(ctx, slug)
}

// ListPosts hides unpublished posts from non-admin callers.
func (s *BlogService) ListPosts(ctx context.Context, callerRole models.Role, limit, offset int) ([]models.BlogPost, int64, error) {
	publishedOnly := callerRole != models.RoleAdmin
	return s.blogRepo.ListPosts(ctx, publishedOnly, limit, offset)
}

func (s *BlogService) CreateCategory(ctx context.Context, name string) (*models.BlogCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}

	cat := &models.BlogCategory{Name: name, Slug: Slugify(name)}
	if err := s.blogRepo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *BlogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.blogRepo.DeleteCategory(ctx, id)
}

func (s *BlogService) ListCategories(ctx context.Context) ([]models.BlogCategory, error) {
	return s.blogRepo.ListCategories(ctx)
}

// Slugify lowercases the title and collapses everything that is not a letter
// or digit into single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
