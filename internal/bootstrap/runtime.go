// Package bootstrap wires the process-wide singletons. Repositories and
// stores are constructed once here and injected by reference into every
// consumer; each is single-writer/multi-reader by construction, so no
// locking happens above this layer.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ember/internal/blob"
	"ember/internal/config"
	"ember/internal/datasource"
	"ember/internal/docstore"
	"ember/internal/identity"
	"ember/internal/prefs"
	"ember/internal/repository"
	"ember/internal/service"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Runtime holds the shared instances the rest of the application consumes.
type Runtime struct {
	Config *config.Config

	Store *docstore.Store
	DB    *gorm.DB
	Blobs *blob.FileStore

	Auth  *identity.Service
	Prefs *prefs.Store

	Posts    *datasource.Posts
	Comments *datasource.Comments

	PostRepo    *repository.PostRepository
	CommentRepo *repository.CommentRepository

	Submitter *service.PostSubmitter
}

// InitRuntime connects to the backend, opens the local database, and
// constructs the singletons.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	store, err := docstore.Open(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("document store connection failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LocalDBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(cfg.LocalDBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("local database open failed: %w", err)
	}

	blobs, err := blob.NewFileStore(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		return nil, fmt.Errorf("blob store init failed: %w", err)
	}

	auth, err := identity.NewService(store, db, cfg.AuthSecret)
	if err != nil {
		return nil, fmt.Errorf("identity provider init failed: %w", err)
	}

	preferences, err := prefs.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("preference store init failed: %w", err)
	}

	grace := time.Duration(cfg.StreamGraceSec) * time.Second
	posts := datasource.NewPosts(store)
	comments := datasource.NewComments(store)

	return &Runtime{
		Config:      cfg,
		Store:       store,
		DB:          db,
		Blobs:       blobs,
		Auth:        auth,
		Prefs:       preferences,
		Posts:       posts,
		Comments:    comments,
		PostRepo:    repository.NewPostRepository(posts, grace),
		CommentRepo: repository.NewCommentRepository(comments, grace),
		Submitter:   service.NewPostSubmitter(posts, blobs, auth),
	}, nil
}

// Close releases backend and local database handles.
func (r *Runtime) Close() error {
	if sqlDB, err := r.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return r.Store.Close()
}
