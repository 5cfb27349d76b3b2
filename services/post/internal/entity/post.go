package entity

import "time"

// Post is the single persisted record of the service. JSON names follow the
// contract the web client was built against.
type Post struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Name         string    `json:"name"`
	Creator      string    `json:"creator" validate:"required"`
	Tags         []string  `json:"tags"`
	SelectedFile string    `json:"selectedFile"`
	Likes        []string  `json:"likes" validate:"unique"`
	Comments     []string  `json:"comments"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PostFields are the caller-editable parts of a post.
type PostFields struct {
	Title        string
	Message      string
	Name         string
	Tags         []string
	SelectedFile string
}

// Normalize replaces nil collections so they serialize as empty arrays.
func (p *Post) Normalize() *Post {
	if p == nil {
		return nil
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []string{}
	}
	return p
}

func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike adds userID to likes when absent and removes it otherwise.
// It reports whether the post is liked by userID afterwards.
func (p *Post) ToggleLike(userID string) bool {
	if !p.LikedBy(userID) {
		p.Likes = append(p.Likes, userID)
		return true
	}

	likes := make([]string, 0, len(p.Likes))
	for _, id := range p.Likes {
		if id != userID {
			likes = append(likes, id)
		}
	}
	p.Likes = likes
	return false
}

func (p *Post) Apply(fields PostFields) {
	p.Title = fields.Title
	p.Message = fields.Message
	p.Name = fields.Name
	p.Tags = fields.Tags
	p.SelectedFile = fields.SelectedFile
}

// Clone returns a deep copy so callers never share slices with a store.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	c.Likes = append([]string{}, p.Likes...)
	c.Comments = append([]string{}, p.Comments...)
	return &c
}
