package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type contentDoc struct {
	ContentID string    `bson:"contentId"`
	ProjectID string    `bson:"projectId"`
	Name      string    `bson:"name"`
	Category  string    `bson:"category"`
	Body      string    `bson:"body"`
	Icon      *string   `bson:"icon,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *contentDoc) model() *models.Content {
	return &models.Content{
		ContentID: d.ContentID,
		ProjectID: d.ProjectID,
		Name:      d.Name,
		Category:  d.Category,
		Body:      d.Body,
		Icon:      d.Icon,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func nodeFilter(contentID, projectID string) bson.M {
	return bson.M{"contentId": contentID, "projectId": projectID}
}

type contentsRepo struct {
	coll *mongo.Collection
}

func (r *contentsRepo) FindOne(ctx context.Context, contentID, projectID string) (*models.Content, error) {
	var doc contentDoc
	if err := r.coll.FindOne(ctx, nodeFilter(contentID, projectID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("find content: %w", err)
	}
	return doc.model(), nil
}

func (r *contentsRepo) Find(ctx context.Context, projectID string) ([]*models.Content, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "contentId", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"projectId": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find contents: %w", err)
	}
	var docs []contentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode contents: %w", err)
	}
	result := make([]*models.Content, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].model())
	}
	return result, nil
}

func (r *contentsRepo) Create(ctx context.Context, c *models.Content) error {
	doc := contentDoc{
		ContentID: c.ContentID,
		ProjectID: c.ProjectID,
		Name:      c.Name,
		Category:  c.Category,
		Body:      c.Body,
		Icon:      c.Icon,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("insert content: %w", err)
	}
	return nil
}

func (r *contentsRepo) Upsert(ctx context.Context, contentID, projectID string, patch models.ContentPatch, now time.Time) (*models.Content, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc contentDoc
	err := r.coll.FindOneAndUpdate(ctx, nodeFilter(contentID, projectID), upsertUpdate(patch, now), opts).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("upsert content: %w", err)
	}
	return doc.model(), nil
}

// upsertUpdate sets the patched fields and fills the rest with insert
// defaults only when the document is created.
func upsertUpdate(patch models.ContentPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	onInsert := bson.M{"createdAt": now}

	assign := func(field string, v *string, def string) {
		if v != nil {
			set[field] = *v
			return
		}
		onInsert[field] = def
	}
	assign("name", patch.Name, models.DefaultContentName)
	assign("category", patch.Category, models.DefaultContentCategory)
	assign("body", patch.Body, "")
	if patch.Icon != nil {
		set["icon"] = *patch.Icon
	}

	return bson.M{"$set": set, "$setOnInsert": onInsert}
}

type versionDoc struct {
	ID        bson.ObjectID  `bson:"_id"`
	ContentID string         `bson:"contentId"`
	ProjectID string         `bson:"projectId"`
	Name      string         `bson:"name"`
	Category  string         `bson:"category"`
	Body      string         `bson:"body"`
	AuthorID  *string        `bson:"authorId,omitempty"`
	Meta      map[string]any `bson:"meta,omitempty"`
	CreatedAt time.Time      `bson:"createdAt"`
}

func (d *versionDoc) model() *models.ContentVersion {
	return &models.ContentVersion{
		VersionID: d.ID.Hex(),
		ContentID: d.ContentID,
		ProjectID: d.ProjectID,
		Name:      d.Name,
		Category:  d.Category,
		Body:      d.Body,
		AuthorID:  d.AuthorID,
		Meta:      d.Meta,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type versionsRepo struct {
	coll *mongo.Collection
}

func (r *versionsRepo) Create(ctx context.Context, v *models.ContentVersion) error {
	doc := versionDoc{
		ID:        bson.NewObjectID(),
		ContentID: v.ContentID,
		ProjectID: v.ProjectID,
		Name:      v.Name,
		Category:  v.Category,
		Body:      v.Body,
		AuthorID:  v.AuthorID,
		Meta:      v.Meta,
		CreatedAt: v.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	v.VersionID = doc.ID.Hex()
	return nil
}

func (r *versionsRepo) FindOne(ctx context.Context, contentID, projectID, versionID string) (*models.ContentVersion, error) {
	id, err := bson.ObjectIDFromHex(versionID)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	filter := nodeFilter(contentID, projectID)
	filter["_id"] = id

	var doc versionDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("find version: %w", err)
	}
	return doc.model(), nil
}

func (r *versionsRepo) List(ctx context.Context, contentID, projectID string, limit, skip int) ([]*models.ContentVersion, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	return r.find(ctx, nodeFilter(contentID, projectID), opts)
}

func (r *versionsRepo) Count(ctx context.Context, contentID, projectID string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, nodeFilter(contentID, projectID))
	if err != nil {
		return 0, fmt.Errorf("count versions: %w", err)
	}
	return n, nil
}

func (r *versionsRepo) Oldest(ctx context.Context, contentID, projectID string, n int64) ([]*models.ContentVersion, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(n)
	return r.find(ctx, nodeFilter(contentID, projectID), opts)
}

func (r *versionsRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, s := range ids {
		if id, err := bson.ObjectIDFromHex(s); err == nil {
			oids = append(oids, id)
		}
	}
	if len(oids) == 0 {
		return 0, nil
	}

	res, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("delete versions: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *versionsRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]*models.ContentVersion, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find versions: %w", err)
	}
	var docs []versionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode versions: %w", err)
	}
	result := make([]*models.ContentVersion, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].model())
	}
	return result, nil
}

type projectsRepo struct {
	coll *mongo.Collection
}

func (r *projectsRepo) Touch(ctx context.Context, projectID string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	return nil
}

func (r *projectsRepo) FindOne(ctx context.Context, projectID string) (*models.Project, error) {
	var p models.Project
	if err := r.coll.FindOne(ctx, bson.M{"_id": projectID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
