package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, companyID, id snowflake.ID) (*Client, error)
	// ListRefs pages through every client of every company ordered by id.
	ListRefs(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]Ref, error)
}
