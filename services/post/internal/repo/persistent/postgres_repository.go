package persistent

import (
	"context"
	"fmt"
	"strings"

	"memories/services/post/internal/entity"
	"memories/services/post/internal/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postgresPostRepository struct {
	db *gorm.DB
}

func NewPostgresPostRepository(db *gorm.DB) PostRepository {
	return &postgresPostRepository{db: db}
}

func (r *postgresPostRepository) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *postgresPostRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PostModel{}).Count(&count).Error
	return count, err
}

func (r *postgresPostRepository) List(ctx context.Context, limit, offset int) ([]*entity.Post, error) {
	var postModels []model.PostModel
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&postModels).Error
	if err != nil {
		return nil, err
	}
	return toPostEntities(postModels), nil
}

func (r *postgresPostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	if err := r.checkID(id); err != nil {
		return nil, err
	}

	var postModels []model.PostModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&postModels).Error; err != nil {
		return nil, err
	}
	if len(postModels) == 0 {
		return nil, nil
	}
	return ToPostEntity(&postModels[0]), nil
}

func (r *postgresPostRepository) Create(ctx context.Context, post *entity.Post) error {
	postModel := ToPostModel(post)
	postModel.ID = ""

	if err := r.db.WithContext(ctx).Create(postModel).Error; err != nil {
		return err
	}

	*post = *ToPostEntity(postModel)
	return nil
}

func (r *postgresPostRepository) Update(ctx context.Context, id string, fields entity.PostFields) (*entity.Post, error) {
	tags := fields.Tags
	if tags == nil {
		tags = []string{}
	}

	return r.updateReturning(ctx, id, map[string]interface{}{
		"title":         fields.Title,
		"message":       fields.Message,
		"name":          fields.Name,
		"tags":          pq.StringArray(tags),
		"selected_file": fields.SelectedFile,
	})
}

func (r *postgresPostRepository) Delete(ctx context.Context, id string) error {
	if err := r.checkID(id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&model.PostModel{}, "id = ?", id).Error
}

func (r *postgresPostRepository) ToggleLike(ctx context.Context, id, userID string) (*entity.Post, error) {
	return r.updateReturning(ctx, id, map[string]interface{}{
		"likes": gorm.Expr(
			"CASE WHEN ?::text = ANY(likes) THEN array_remove(likes, ?::text) ELSE array_append(likes, ?::text) END",
			userID, userID, userID,
		),
	})
}

func (r *postgresPostRepository) AppendComment(ctx context.Context, id, value string) (*entity.Post, error) {
	return r.updateReturning(ctx, id, map[string]interface{}{
		"comments": gorm.Expr("array_append(comments, ?::text)", value),
	})
}

func (r *postgresPostRepository) Search(ctx context.Context, query string, tags []string) ([]*entity.Post, error) {
	if tags == nil {
		tags = []string{}
	}

	var postModels []model.PostModel
	err := r.db.WithContext(ctx).
		Where("title ILIKE ? OR tags && ?::text[]", "%"+escapeLike(query)+"%", pq.StringArray(tags)).
		Find(&postModels).Error
	if err != nil {
		return nil, err
	}
	return toPostEntities(postModels), nil
}

// updateReturning applies values to one row in a single statement and returns
// the row as written.
func (r *postgresPostRepository) updateReturning(ctx context.Context, id string, values map[string]interface{}) (*entity.Post, error) {
	if err := r.checkID(id); err != nil {
		return nil, err
	}

	var postModels []model.PostModel
	result := r.db.WithContext(ctx).
		Model(&postModels).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 || len(postModels) == 0 {
		return nil, nil
	}
	return ToPostEntity(&postModels[0]), nil
}

func (r *postgresPostRepository) checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid post id %q: %w", id, err)
	}
	return nil
}

func toPostEntities(postModels []model.PostModel) []*entity.Post {
	posts := make([]*entity.Post, len(postModels))
	for i := range postModels {
		posts[i] = ToPostEntity(&postModels[i])
	}
	return posts
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
