// Package model holds the persistent entities shared by the stores, the
// query compiler and the HTTP layer. UUID columns are stored in their
// canonical 36-character form on every dialect so that joins and group
// projections compare uniformly.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:users"`

	ID           uuid.UUID `bun:"id,pk,type:varchar(36)"`
	Username     string    `bun:"username,notnull"`
	PasswordSalt []byte    `bun:"password_salt,notnull"`
	PasswordHash []byte    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type APIKey struct {
	bun.BaseModel `bun:"table:apikeys,alias:apikeys"`

	ID          uuid.UUID `bun:"id,pk,type:varchar(36)"`
	Description *string   `bun:"description"`
	SecretSalt  []byte    `bun:"secret_salt,notnull"`
	SecretHash  []byte    `bun:"secret_hash,notnull"`
	UserID      uuid.UUID `bun:"user_id,notnull,type:varchar(36)"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:sessions"`

	ID          uuid.UUID `bun:"id,pk,type:varchar(36)"`
	Description *string   `bun:"description"`
	Baggage     JSONMap   `bun:"baggage,type:text"`
	UserID      uuid.UUID `bun:"user_id,notnull,type:varchar(36)"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type Label struct {
	bun.BaseModel `bun:"table:labels,alias:labels"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Key       string    `bun:"key,notnull"`
	Value     *string   `bun:"value"`
	SessionID uuid.UUID `bun:"session_id,notnull,type:varchar(36)"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:varchar(36)"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type Testcase struct {
	bun.BaseModel `bun:"table:testcases,alias:testcases"`

	ID        uuid.UUID `bun:"id,pk,type:varchar(36)"`
	Status    Status    `bun:"status,notnull"`
	Name      string    `bun:"name,notnull"`
	Classname *string   `bun:"classname"`
	File      *string   `bun:"file"`
	Testsuite *string   `bun:"testsuite"`
	Output    *string   `bun:"output"`
	Baggage   JSONMap   `bun:"baggage,type:text"`
	SessionID uuid.UUID `bun:"session_id,notnull,type:varchar(36)"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:varchar(36)"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
