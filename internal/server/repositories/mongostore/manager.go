// Package mongostore is the MongoDB backend for the content store. Multi
// document transactions need a replica set; against a standalone server
// WithTx reports common.ErrTxUnsupported.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/repomanager"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	contentsCollection = "contents"
	versionsCollection = "content_versions"
	projectsCollection = "projects"
)

// illegalOperationCode is what a standalone server answers to a transactional command.
const illegalOperationCode = 20

// Manager implements repomanager.RepositoryManager on MongoDB.
type Manager struct {
	client *mongo.Client
	db     *mongo.Database
}

// mongoConnect is a seam for tests.
var mongoConnect = func(uri string) (*mongo.Client, error) {
	return mongo.Connect(options.Client().ApplyURI(uri))
}

// Open connects to uri and pings the server.
func Open(ctx context.Context, uri, database string) (*Manager, error) {
	client, err := mongoConnect(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return NewManager(client, database), nil
}

func NewManager(client *mongo.Client, database string) *Manager {
	return &Manager{client: client, db: client.Database(database)}
}

// RunMigrations creates the indexes the repositories rely on, including the
// unique (contentId, projectId) key.
func (m *Manager) RunMigrations(ctx context.Context) error {
	for name, models := range indexModels() {
		if _, err := m.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		contentsCollection: {
			{
				Keys:    bson.D{{Key: "contentId", Value: 1}, {Key: "projectId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		versionsCollection: {
			{Keys: bson.D{{Key: "contentId", Value: 1}, {Key: "projectId", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
		},
	}
}

func (m *Manager) Repositories() repomanager.Repositories {
	return repomanager.Repositories{
		Contents: &contentsRepo{coll: m.db.Collection(contentsCollection)},
		Versions: &versionsRepo{coll: m.db.Collection(versionsCollection)},
		Projects: &projectsRepo{coll: m.db.Collection(projectsCollection)},
	}
}

// WithTx runs fn inside a session transaction. The repositories are the
// regular ones; the session travels in ctx.
func (m *Manager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	sess, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrTxUnsupported, err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx, m.Repositories())
	})
	if isTxUnsupported(err) {
		return fmt.Errorf("%w: %w", common.ErrTxUnsupported, err)
	}
	return err
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Manager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func isTxUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(illegalOperationCode)
}
