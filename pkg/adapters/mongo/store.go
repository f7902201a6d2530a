// Package mongo implements ports.CurriculumStore on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/aretw0/skillflow/pkg/domain"
	"github.com/aretw0/skillflow/pkg/ports"
)

const (
	defaultRoadmaps = "roadmaps"
	defaultLessons  = "lessons"
	defaultTimeout  = 5 * time.Second
)

var _ ports.CurriculumStore = (*Store)(nil)

// Options configures the Mongo store.
type Options struct {
	Client             *mongodriver.Client
	Database           string
	RoadmapsCollection string
	LessonsCollection  string
	Timeout            time.Duration
}

// Store keeps roadmaps and lessons in two collections.
// Lessons are also summarised inside their roadmap concept by AttachLessons.
type Store struct {
	mongo    *mongodriver.Client
	roadmaps collection
	lessons  collection
	timeout  time.Duration
}

// Connect opens a client for uri and checks the server answers within timeout.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongodriver.Client, error) {
	client, err := mongodriver.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}
	return client, nil
}

// New returns a Store backed by the provided MongoDB client and creates its indexes.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	roadmaps := opts.RoadmapsCollection
	if roadmaps == "" {
		roadmaps = defaultRoadmaps
	}
	lessons := opts.LessonsCollection
	if lessons == "" {
		lessons = defaultLessons
	}
	db := opts.Client.Database(opts.Database)
	s, err := newStoreWithCollections(opts.Client,
		mongoCollection{coll: db.Collection(roadmaps)},
		mongoCollection{coll: db.Collection(lessons)},
		opts.Timeout,
	)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := ensureIndexes(ctx, s.roadmaps, s.lessons); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return s, nil
}

func newStoreWithCollections(client *mongodriver.Client, roadmaps, lessons collection, timeout time.Duration) (*Store, error) {
	if roadmaps == nil || lessons == nil {
		return nil, errors.New("collections are required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{mongo: client, roadmaps: roadmaps, lessons: lessons, timeout: timeout}, nil
}

// Ping checks the connection to the primary.
func (s *Store) Ping(ctx context.Context) error {
	if s.mongo == nil {
		return nil
	}
	return s.mongo.Ping(ctx, readpref.Primary())
}

func (s *Store) SaveRoadmap(ctx context.Context, roadmap *domain.Roadmap) error {
	if roadmap.ID == "" {
		return errors.New("roadmap id is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doc := toRoadmapDocument(roadmap)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.roadmaps.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, true); err != nil {
		return fmt.Errorf("failed to save roadmap %s: %w", roadmap.ID, err)
	}
	return nil
}

func (s *Store) GetRoadmap(ctx context.Context, id string) (*domain.Roadmap, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc roadmapDocument
	if err := s.roadmaps.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("roadmap %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load roadmap %s: %w", id, err)
	}
	return doc.toDomain()
}

func (s *Store) ListRoadmaps(ctx context.Context) ([]domain.Roadmap, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.roadmaps.Find(ctx, bson.M{}, bson.D{{Key: "created_at", Value: 1}})
	if err != nil {
		return nil, fmt.Errorf("failed to list roadmaps: %w", err)
	}
	var docs []roadmapDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode roadmaps: %w", err)
	}
	out := make([]domain.Roadmap, 0, len(docs))
	for _, d := range docs {
		r, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// AttachLessons rewrites the roadmap document with the concept's lessons replaced.
func (s *Store) AttachLessons(ctx context.Context, roadmapID, sectionID, conceptID string, lessons []domain.LessonRecord) error {
	roadmap, err := s.GetRoadmap(ctx, roadmapID)
	if err != nil {
		return err
	}
	_, concept, ok := roadmap.FindConcept(sectionID, conceptID)
	if !ok {
		return fmt.Errorf("concept %s in section %s: %w", conceptID, sectionID, domain.ErrNotFound)
	}
	concept.Lessons = lessons

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	matched, err := s.roadmaps.ReplaceOne(ctx, bson.M{"_id": roadmapID}, toRoadmapDocument(roadmap), false)
	if err != nil {
		return fmt.Errorf("failed to attach lessons to roadmap %s: %w", roadmapID, err)
	}
	if matched == 0 {
		return fmt.Errorf("roadmap %s: %w", roadmapID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) InsertLessons(ctx context.Context, lessons []domain.LessonRecord) error {
	if len(lessons) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	docs := make([]any, 0, len(lessons))
	for i := range lessons {
		if lessons[i].ID == "" {
			return errors.New("lesson id is required")
		}
		doc, err := toLessonDocument(&lessons[i])
		if err != nil {
			return err
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		doc.Seq = i
		docs = append(docs, doc)
	}
	if err := s.lessons.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert lessons: %w", err)
	}
	return nil
}

func (s *Store) GetLesson(ctx context.Context, id string) (*domain.LessonRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc lessonDocument
	if err := s.lessons.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("lesson %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load lesson %s: %w", id, err)
	}
	return doc.toDomain()
}

func (s *Store) ListLessons(ctx context.Context, conceptID string) ([]domain.LessonRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.lessons.Find(ctx, bson.M{"concept_id": conceptID}, bson.D{
		{Key: "created_at", Value: 1},
		{Key: "seq", Value: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons of concept %s: %w", conceptID, err)
	}
	var docs []lessonDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode lessons: %w", err)
	}
	out := make([]domain.LessonRecord, 0, len(docs))
	for _, d := range docs {
		l, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

func (s *Store) SaveLessonContent(ctx context.Context, id string, lesson domain.Lesson, approved bool) error {
	content, err := toContentDocument(&lesson)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	matched, err := s.lessons.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"lesson":     content,
		"approved":   approved,
		"status":     string(domain.StatusCurrent),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("failed to save lesson %s: %w", id, err)
	}
	if matched == 0 {
		return fmt.Errorf("lesson %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func ensureIndexes(ctx context.Context, roadmaps, lessons collection) error {
	if _, err := roadmaps.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := lessons.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys: bson.D{{Key: "concept_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "seq", Value: 1}},
	})
	return err
}

// collection is the subset of *mongo.Collection the store uses.
type collection interface {
	InsertMany(ctx context.Context, docs []any) error
	FindOne(ctx context.Context, filter any) singleResult
	Find(ctx context.Context, filter any, sort bson.D) (cursor, error)
	UpdateOne(ctx context.Context, filter, update any) (matched int64, err error)
	ReplaceOne(ctx context.Context, filter, replacement any, upsert bool) (matched int64, err error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel) (string, error)
}

type singleResult interface {
	Decode(val any) error
}

type cursor interface {
	All(ctx context.Context, results any) error
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) InsertMany(ctx context.Context, docs []any) error {
	_, err := c.coll.InsertMany(ctx, docs)
	return err
}

func (c mongoCollection) FindOne(ctx context.Context, filter any) singleResult {
	return c.coll.FindOne(ctx, filter)
}

func (c mongoCollection) Find(ctx context.Context, filter any, sort bson.D) (cursor, error) {
	return c.coll.Find(ctx, filter, options.Find().SetSort(sort))
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter, update any) (int64, error) {
	res, err := c.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (c mongoCollection) ReplaceOne(ctx context.Context, filter, replacement any, upsert bool) (int64, error) {
	res, err := c.coll.ReplaceOne(ctx, filter, replacement, options.Replace().SetUpsert(upsert))
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (c mongoCollection) Indexes() indexView {
	return mongoIndexView{view: c.coll.Indexes()}
}

type mongoIndexView struct {
	view mongodriver.IndexView
}

func (v mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel) (string, error) {
	return v.view.CreateOne(ctx, model)
}
