package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/v2/bson"
	"gorm.io/gorm"
)

// PostModel is the row layout of the posts table.
type PostModel struct {
	ID           string         `gorm:"type:uuid;primary_key"`
	Title        string         `gorm:"type:text;not null;default:''"`
	Message      string         `gorm:"type:text;not null;default:''"`
	Name         string         `gorm:"type:varchar(255);not null;default:''"`
	Creator      string         `gorm:"type:varchar(255);not null;index"`
	Tags         pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	SelectedFile string         `gorm:"type:text;not null;default:''"`
	Likes        pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	Comments     pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt    time.Time      `gorm:"not null"`
}

func (PostModel) TableName() string {
	return "posts"
}

// BeforeCreate assigns a time-ordered UUID so that ordering by id approximates
// ordering by creation.
func (p *PostModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		p.ID = id.String()
	}
	return nil
}

// PostDocument is the BSON layout of a document in the posts collection.
type PostDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Title        string        `bson:"title"`
	Message      string        `bson:"message"`
	Name         string        `bson:"name"`
	Creator      string        `bson:"creator"`
	Tags         []string      `bson:"tags"`
	SelectedFile string        `bson:"selectedFile"`
	Likes        []string      `bson:"likes"`
	Comments     []string      `bson:"comments"`
	CreatedAt    time.Time     `bson:"createdAt"`
}
