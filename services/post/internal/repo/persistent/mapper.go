package persistent

import (
	"memories/services/post/internal/entity"
	"memories/services/post/internal/model"

	"github.com/lib/pq"
)

func ToPostEntity(m *model.PostModel) *entity.Post {
	if m == nil {
		return nil
	}

	post := &entity.Post{
		ID:           m.ID,
		Title:        m.Title,
		Message:      m.Message,
		Name:         m.Name,
		Creator:      m.Creator,
		Tags:         []string(m.Tags),
		SelectedFile: m.SelectedFile,
		Likes:        []string(m.Likes),
		Comments:     []string(m.Comments),
		CreatedAt:    m.CreatedAt,
	}
	return post.Normalize()
}

func ToPostModel(e *entity.Post) *model.PostModel {
	if e == nil {
		return nil
	}

	e = e.Clone().Normalize()
	return &model.PostModel{
		ID:           e.ID,
		Title:        e.Title,
		Message:      e.Message,
		Name:         e.Name,
		Creator:      e.Creator,
		Tags:         pq.StringArray(e.Tags),
		SelectedFile: e.SelectedFile,
		Likes:        pq.StringArray(e.Likes),
		Comments:     pq.StringArray(e.Comments),
		CreatedAt:    e.CreatedAt,
	}
}

func DocumentToPostEntity(d *model.PostDocument) *entity.Post {
	if d == nil {
		return nil
	}

	post := &entity.Post{
		Title:        d.Title,
		Message:      d.Message,
		Name:         d.Name,
		Creator:      d.Creator,
		Tags:         d.Tags,
		SelectedFile: d.SelectedFile,
		Likes:        d.Likes,
		Comments:     d.Comments,
		CreatedAt:    d.CreatedAt,
	}
	if !d.ID.IsZero() {
		post.ID = d.ID.Hex()
	}
	return post.Normalize()
}

// PostEntityToDocument maps everything but the identifier, which the caller
// resolves since it may be malformed.
func PostEntityToDocument(e *entity.Post) *model.PostDocument {
	if e == nil {
		return nil
	}

	e = e.Clone().Normalize()
	return &model.PostDocument{
		Title:        e.Title,
		Message:      e.Message,
		Name:         e.Name,
		Creator:      e.Creator,
		Tags:         e.Tags,
		SelectedFile: e.SelectedFile,
		Likes:        e.Likes,
		Comments:     e.Comments,
		CreatedAt:    e.CreatedAt,
	}
}
