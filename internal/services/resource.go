package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/msb-blog/apiserver/internal/auth"
	"github.com/msb-blog/apiserver/internal/model"
	"github.com/msb-blog/apiserver/internal/mq"
	"github.com/msb-blog/apiserver/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentRepository defines persistence operations for one registered
// model's collection.
type DocumentRepository interface {
	Descriptor() model.Descriptor
	List(ctx context.Context) ([]map[string]any, error)
	Get(ctx context.Context, id string) (map[string]any, error)
	Create(ctx context.Context, doc map[string]any) (map[string]any, error)
	Update(ctx context.Context, id string, update map[string]any) error
	Delete(ctx context.Context, id string) error
}

// HandleResolver resolves a referenced author email to its handle for
// derived export fields.
type HandleResolver interface {
	GetByEmail(ctx context.Context, email string) (types.User, error)
}

// ValidationError carries the per-field messages produced by schema
// validation of a create payload.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, "; ")
}

// ResourceService implements the generic CRUD use-cases for one model:
// validation and default fill on create, author stamping, export-view
// shaping with derived fields, and lifecycle event publication.
type ResourceService struct {
	repo   DocumentRepository
	users  HandleResolver
	events mq.Publisher
}

// NewResourceService wires a resource service. events may be nil, in
// which case no lifecycle events are published.
func NewResourceService(repo DocumentRepository, users HandleResolver, events mq.Publisher) *ResourceService {
	return &ResourceService{
		repo:   repo,
		users:  users,
		events: events,
	}
}

// Descriptor returns the schema the service operates on.
func (s *ResourceService) Descriptor() model.Descriptor {
	return s.repo.Descriptor()
}

// List returns the export view of every stored instance.
func (s *ResourceService) List(ctx context.Context) ([]map[string]any, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		views = append(views, s.exportView(ctx, doc))
	}
	return views, nil
}

// Get returns the export view of one instance.
func (s *ResourceService) Get(ctx context.Context, id string) (map[string]any, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.exportView(ctx, doc), nil
}

// Create validates the payload against the schema and persists it. On
// models with an author field the caller's email replaces whatever the
// body carried; on the user model the password is digested before it is
// stored.
func (s *ResourceService) Create(ctx context.Context, doc map[string]any, caller types.Identity) (map[string]any, error) {
	desc := s.repo.Descriptor()
	if desc.HasAuthor() {
		doc["author"] = caller.Email
	}
	desc.ApplyDefaults(doc)
	if errs := desc.Validate(doc); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	if _, ok := desc.Field("password"); ok {
		if raw, ok := doc["password"].(string); ok {
			doc["password"] = auth.SaltedHash(raw)
		}
	}

	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "create", created["_id"])
	return s.exportView(ctx, created), nil
}

// Update applies a partial update to the identified instance. The body
// is a MongoDB-style update document; a plain field map is wrapped in
// $set.
func (s *ResourceService) Update(ctx context.Context, id string, body map[string]any) error {
	update := body
	if !hasOperator(body) {
		update = map[string]any{"$set": body}
	}
	if err := s.repo.Update(ctx, id, update); err != nil {
		return err
	}
	s.publish(ctx, "update", id)
	return nil
}

// Delete removes the identified instance.
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "delete", id)
	return nil
}

func hasOperator(body map[string]any) bool {
	for key := range body {
		if strings.HasPrefix(key, "$") {
			return true
		}
	}
	return false
}

// exportView shapes a stored document into the model's declared export
// view. Derived fields are resolved here: id from the primary key,
// author_handle by following the author reference.
func (s *ResourceService) exportView(ctx context.Context, doc map[string]any) map[string]any {
	desc := s.repo.Descriptor()
	view := make(map[string]any, len(desc.Export))
	for _, name := range desc.Export {
		switch {
		case name == "id":
			view[name] = formatID(doc["_id"])
		case name == "author_handle":
			view[name] = s.authorHandle(ctx, doc["author"])
		case name == desc.NaturalKey:
			view[name] = normalize(doc["_id"])
		default:
			view[name] = normalize(doc[name])
		}
	}
	return view
}

func (s *ResourceService) authorHandle(ctx context.Context, author any) string {
	email, ok := author.(string)
	if !ok || s.users == nil {
		return ""
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return ""
	}
	return user.Handle
}

// normalize maps driver-decoded values back to plain Go values so the
// JSON encoder renders them the way they came in.
func normalize(value any) any {
	switch v := value.(type) {
	case primitive.DateTime:
		return v.Time().UTC()
	case time.Time:
		return v.UTC()
	case primitive.ObjectID:
		return v.Hex()
	default:
		return value
	}
}

func formatID(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// publish emits a lifecycle event on a best-effort basis; a broker
// failure never fails the request that triggered it.
func (s *ResourceService) publish(ctx context.Context, action string, id any) {
	if s.events == nil {
		return
	}
	desc := s.repo.Descriptor()
	payload, err := json.Marshal(map[string]string{
		"model":  desc.Name,
		"action": action,
		"id":     formatID(id),
	})
	if err != nil {
		return
	}
	channel := "msb." + desc.Plural()
	if _, err := s.events.Publish(ctx, channel, payload, map[string]string{"action": action}); err != nil {
		log.Printf("publish %s event for %s: %v", action, desc.Name, err)
	}
}
