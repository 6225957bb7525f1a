package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/msb-blog/apiserver/internal/auth"
	"github.com/msb-blog/apiserver/internal/handlers"
	"github.com/msb-blog/apiserver/internal/model"
	"github.com/msb-blog/apiserver/internal/services"
	"github.com/msb-blog/apiserver/internal/store"
	"github.com/msb-blog/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memRepo is an in-memory DocumentRepository mirroring the id semantics
// of the mongo-backed one.
type memRepo struct {
	desc model.Descriptor
	docs map[string]map[string]any
}

func newMemRepo(desc model.Descriptor) *memRepo {
	return &memRepo{
		desc: desc,
		docs: make(map[string]map[string]any),
	}
}

func (r *memRepo) Descriptor() model.Descriptor { return r.desc }

func (r *memRepo) key(id string) (string, error) {
	if r.desc.NaturalKey != "" {
		return id, nil
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return "", store.ErrNotFound
	}
	return id, nil
}

func (r *memRepo) List(ctx context.Context) ([]map[string]any, error) {
	docs := make([]map[string]any, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *memRepo) Get(ctx context.Context, id string) (map[string]any, error) {
	key, err := r.key(id)
	if err != nil {
		return nil, err
	}
	doc, ok := r.docs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func (r *memRepo) Create(ctx context.Context, doc map[string]any) (map[string]any, error) {
	stored := make(map[string]any, len(doc)+1)
	for name, value := range doc {
		stored[name] = value
	}
	var key string
	if r.desc.NaturalKey != "" {
		key = stored[r.desc.NaturalKey].(string)
		if _, exists := r.docs[key]; exists {
			return nil, store.ErrDuplicate
		}
		stored["_id"] = key
		delete(stored, r.desc.NaturalKey)
	} else {
		oid := primitive.NewObjectID()
		stored["_id"] = oid
		key = oid.Hex()
	}
	r.docs[key] = stored
	return stored, nil
}

func (r *memRepo) Update(ctx context.Context, id string, update map[string]any) error {
	key, err := r.key(id)
	if err != nil {
		return err
	}
	doc, ok := r.docs[key]
	if !ok {
		return store.ErrNotFound
	}
	if set, ok := update["$set"].(map[string]any); ok {
		for name, value := range set {
			doc[name] = value
		}
	}
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	key, err := r.key(id)
	if err != nil {
		return err
	}
	if _, ok := r.docs[key]; !ok {
		return store.ErrNotFound
	}
	delete(r.docs, key)
	return nil
}

// memUserRepo backs both the login path and author_handle resolution.
type memUserRepo struct {
	users map[string]types.User
}

func (r *memUserRepo) GetByCredentials(ctx context.Context, email, digest string) (types.User, error) {
	user, ok := r.users[email]
	if !ok || user.Password != digest {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	user, ok := r.users[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) error {
	if _, exists := r.users[user.Email]; exists {
		return store.ErrDuplicate
	}
	r.users[user.Email] = user
	return nil
}

type testEnv struct {
	router   *chi.Mux
	sessions *auth.Sessions
	posts    *memRepo
	users    *memUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sessions := auth.NewSessions("test-secret")
	users := &memUserRepo{users: map[string]types.User{
		"a@b.com": {Email: "a@b.com", Handle: "abz", Password: auth.SaltedHash("secret")},
	}}
	posts := newMemRepo(model.Post)

	router := chi.NewRouter()
	router.Use(handlers.AllowAllOrigins)
	requireSession := handlers.RequireSession(sessions)

	router.Get("/v1", handlers.NewIndexHandler(model.Registered))
	handlers.AuthRouter(router, services.NewUserService(users), sessions)
	handlers.ResourceRouter(router, services.NewResourceService(posts, users, nil), requireSession)
	handlers.ResourceRouter(router, services.NewResourceService(newMemRepo(model.Comment), users, nil), requireSession)

	return &testEnv{
		router:   router,
		sessions: sessions,
		posts:    posts,
		users:    users,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	if authenticated {
		token, err := e.sessions.Issue(types.Identity{Email: "a@b.com", Handle: "abz"})
		require.NoError(t, err)
		r.AddCookie(e.sessions.Cookie(token))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return decoded
}

func validPostBody() map[string]any {
	return map[string]any{
		"title":   "First post",
		"body":    "Hello world.",
		"summary": "hello",
		"date":    "2026-08-01T12:00:00Z",
	}
}

func TestCreateRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/v1/posts", validPostBody(), false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, []any{"Must be logged in."}, decodeBody(t, w)["errors"])
	assert.Empty(t, env.posts.docs, "rejected create must not touch the store")
}

func TestMutationsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	id := primitive.NewObjectID().Hex()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/posts/" + id},
		{http.MethodDelete, "/v1/posts/" + id},
	} {
		w := env.request(t, tc.method, tc.path, map[string]any{"title": "x"}, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestCreateStampsAuthor(t *testing.T) {
	env := newTestEnv(t)

	body := validPostBody()
	body["author"] = "evil@example.com"
	w := env.request(t, http.MethodPost, "/v1/posts", body, true)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decodeBody(t, w)
	assert.Equal(t, "abz", view["author_handle"])

	require.Len(t, env.posts.docs, 1)
	for _, doc := range env.posts.docs {
		assert.Equal(t, "a@b.com", doc["author"])
	}
}

func TestCreateValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/v1/posts", map[string]any{"title": "t"}, true)

	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decodeBody(t, w)["errors"].([]any)
	assert.Contains(t, errs, "body is required")
	assert.Contains(t, errs, "date is required")
}

func TestReadNotFound(t *testing.T) {
	env := newTestEnv(t)
	id := primitive.NewObjectID().Hex()

	w := env.request(t, http.MethodGet, "/v1/posts/"+id, nil, false)

	require.Equal(t, http.StatusNotFound, w.Code)
	errs := decodeBody(t, w)["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "post")
	assert.Contains(t, errs[0], id)
}

func TestUnparseableIDIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/v1/posts/not-a-hex-id", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadAndListExportViews(t *testing.T) {
	env := newTestEnv(t)

	created := decodeBody(t, env.request(t, http.MethodPost, "/v1/posts", validPostBody(), true))
	id := created["id"].(string)

	read := env.request(t, http.MethodGet, "/v1/posts/"+id, nil, false)
	require.Equal(t, http.StatusOK, read.Code)
	view := decodeBody(t, read)
	for name := range view {
		assert.True(t, model.Post.Exported(name), "unexpected export field %s", name)
	}

	list := env.request(t, http.MethodGet, "/v1/posts", nil, false)
	require.Equal(t, http.StatusOK, list.Code)
	posts := decodeBody(t, list)["posts"].([]any)
	assert.Len(t, posts, 1)
}

func TestUpdate(t *testing.T) {
	env := newTestEnv(t)

	created := decodeBody(t, env.request(t, http.MethodPost, "/v1/posts", validPostBody(), true))
	id := created["id"].(string)

	w := env.request(t, http.MethodPost, "/v1/posts/"+id, map[string]any{"title": "Edited"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["ok"])
	assert.Equal(t, "Edited", env.posts.docs[id]["title"])
}

func TestUpdateMissingTargetIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	id := primitive.NewObjectID().Hex()

	w := env.request(t, http.MethodPost, "/v1/posts/"+id, map[string]any{"title": "x"}, true)

	require.Equal(t, http.StatusNotFound, w.Code)
	errs := decodeBody(t, w)["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], id)
}

func TestDeleteTwice(t *testing.T) {
	env := newTestEnv(t)

	created := decodeBody(t, env.request(t, http.MethodPost, "/v1/posts", validPostBody(), true))
	id := created["id"].(string)

	first := env.request(t, http.MethodDelete, "/v1/posts/"+id, nil, true)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, true, decodeBody(t, first)["deleted"])

	second := env.request(t, http.MethodDelete, "/v1/posts/"+id, nil, true)
	require.Equal(t, http.StatusNotFound, second.Code)
	assert.Equal(t, false, decodeBody(t, second)["deleted"])
}

func TestCORSHeaderOnEveryResponse(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/v1/posts", nil, false)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = env.request(t, http.MethodOptions, "/v1/posts", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
