package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/msb-blog/apiserver/internal/auth"
	"github.com/msb-blog/apiserver/internal/services"
	"github.com/msb-blog/apiserver/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PostService is the slice of the post resource the pages need.
type PostService interface {
	List(ctx context.Context) ([]map[string]any, error)
	Create(ctx context.Context, doc map[string]any, caller types.Identity) (map[string]any, error)
}

// Handler renders the HTML front end: the public index, the login form
// and the post editor. It shares the session cookie with the JSON API.
type Handler struct {
	posts    PostService
	users    *services.UserService
	sessions *auth.Sessions
}

func NewHandler(posts PostService, users *services.UserService, sessions *auth.Sessions) *Handler {
	return &Handler{
		posts:    posts,
		users:    users,
		sessions: sessions,
	}
}

// Router registers the HTML routes.
func Router(r chi.Router, posts PostService, users *services.UserService, sessions *auth.Sessions) {
	handler := NewHandler(posts, users, sessions)

	r.Get("/", handler.Index)
	r.Get("/login", handler.LoginForm)
	r.Post("/login", handler.Login)
	r.Get("/posts/new", handler.NewPostForm)
	r.Post("/posts/new", handler.CreatePost)
}

type indexData struct {
	Posts []map[string]any
}

type loginData struct {
	Error  string
	Handle string
}

type editorData struct {
	Errors []string
	Saved  bool
}

// Index lists published posts.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	views, err := h.posts.List(r.Context())
	if err != nil {
		http.Error(w, "failed to load posts", http.StatusInternalServerError)
		return
	}

	published := make([]map[string]any, 0, len(views))
	for _, view := range views {
		if active, ok := view["active"].(bool); ok && active {
			published = append(published, view)
		}
	}

	h.render(w, "index.html", indexData{Posts: published})
}

// LoginForm serves the login page.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", loginData{})
}

// Login handles the login form and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	identity, ok, err := h.users.Authenticate(r.Context(), email, password)
	if err != nil {
		http.Error(w, "failed to authenticate", http.StatusInternalServerError)
		return
	}
	if !ok {
		h.render(w, "login.html", loginData{Error: "Bad email or password."})
		return
	}

	token, err := h.sessions.Issue(identity)
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, h.sessions.Cookie(token))

	h.render(w, "login.html", loginData{Handle: identity.Handle})
}

// NewPostForm serves the post editor to logged-in users.
func (h *Handler) NewPostForm(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.FromRequest(r); err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.render(w, "new_post.html", editorData{})
}

// CreatePost handles the post editor form. The author is always the
// session identity.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity, err := h.sessions.FromRequest(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	date := time.Now().UTC()
	if raw := r.PostFormValue("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.render(w, "new_post.html", editorData{Errors: []string{"date must be YYYY-MM-DD"}})
			return
		}
		date = parsed
	}

	doc := map[string]any{
		"title":   r.PostFormValue("title"),
		"body":    r.PostFormValue("content"),
		"summary": r.PostFormValue("summary"),
		"date":    date,
		"active":  r.PostFormValue("active") != "",
	}

	if _, err := h.posts.Create(r.Context(), doc, identity); err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			h.render(w, "new_post.html", editorData{Errors: validation.Fields})
			return
		}
		http.Error(w, "failed to save post", http.StatusInternalServerError)
		return
	}

	h.render(w, "new_post.html", editorData{Saved: true})
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}
