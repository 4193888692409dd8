package site

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/modules/auth"
	"github.com/GoCodeAlone/folio/modules/content"
)

const invalidJSONMessage = "Invalid JSON. Check for missing quotes around property names, trailing commas or invalid control characters."

var heroRequiredFields = []string{"title", "subtitle", "experience", "projects", "overview"}

var notices = map[string]string{
	"created": "Created.",
	"saved":   "Changes saved.",
	"deleted": "Deleted.",
}

// Handler serves the public page, the login form and the admin pages.
type Handler struct {
	basePath string
	config   *Config
	content  *content.Service
	auth     *auth.Service
	renderer *Renderer
	markdown *markdown
	logger   folio.Logger
}

func NewHandler(config *Config, contentSvc *content.Service, authSvc *auth.Service, renderer *Renderer, logger folio.Logger) *Handler {
	return &Handler{
		config:   config,
		content:  contentSvc,
		auth:     authSvc,
		renderer: renderer,
		markdown: newMarkdown(),
		logger:   logger,
	}
}

// WithBasePath sets the prefix the router is mounted under. Redirects and
// page links are built with it.
func (h *Handler) WithBasePath(basePath string) *Handler {
	h.basePath = strings.TrimSuffix(basePath, "/")
	return h
}

func (h *Handler) path(p string) string {
	return h.basePath + p
}

// RegisterRoutes mounts the pages. The session middleware must run before
// them so signed-in users are recognised.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/auth", h.loginForm)
	r.Post("/auth", h.login)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/", h.admin)
		r.Post("/logout", h.logout)
		r.Post("/sections", h.createSection)
		r.Post("/sections/{id}", h.updateSection)
		r.Post("/sections/{id}/delete", h.deleteSection)
		r.Post("/projects", h.createProject)
		r.Post("/projects/{id}", h.updateProject)
		r.Post("/projects/{id}/delete", h.deleteProject)
	})
}

func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, h.path("/auth"), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		h.logger.Error("Failed to render page", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	_, signedIn := auth.UserFromContext(ctx)
	page := homePage{
		BasePath:   h.basePath,
		SiteTitle:  h.config.Title,
		Background: h.config.Background,
		SignedIn:   signedIn,
	}

	byName := map[string]content.Section{}
	sections, err := h.content.Sections(ctx, false)
	if err != nil {
		h.logger.Error("Failed to load sections; showing defaults", "error", err)
	}
	for _, sec := range sections {
		if _, seen := byName[sec.Name]; !seen {
			byName[sec.Name] = sec
		}
	}

	hero := sectionContent(h.logger, byName, "hero", defaultHero)
	page.Hero = heroView{
		Title:          hero.Title,
		Subtitle:       hero.Subtitle,
		Experience:     hero.Experience,
		Projects:       hero.Projects,
		Overview:       h.markdown.Render(hero.Overview),
		ProfilePicture: hero.ProfilePicture,
		Contact:        hero.Contact,
	}
	page.Education = sectionContent(h.logger, byName, "education", defaultEducation)
	page.Skills = sectionContent(h.logger, byName, "skills", defaultSkills)
	page.Goals = sectionContent(h.logger, byName, "goals", defaultGoals)

	page.Projects, err = h.content.Projects(ctx)
	if err != nil {
		h.logger.Error("Failed to load projects; showing defaults", "error", err)
		page.Projects = defaultProjects
	}

	h.render(w, http.StatusOK, "home.html", page)
}

// sectionContent decodes the named section, falling back when it is absent
// or does not have the expected shape.
func sectionContent[T any](logger folio.Logger, sections map[string]content.Section, name string, fallback T) T {
	sec, ok := sections[name]
	if !ok {
		return fallback
	}
	var v T
	if err := json.Unmarshal(sec.Content, &v); err != nil {
		logger.Warn("Section content has an unexpected shape; showing defaults", "section", name, "error", err)
		return fallback
	}
	return v
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, h.path("/admin"), http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "auth.html", authPage{BasePath: h.basePath, SiteTitle: h.config.Title})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	page := authPage{BasePath: h.basePath, SiteTitle: h.config.Title, Username: username}

	_, session, err := h.auth.Login(r.Context(), username, r.PostFormValue("password"), auth.MetaFromRequest(r))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		page.Error = "Invalid username or password."
		h.render(w, http.StatusUnauthorized, "auth.html", page)
		return
	case err != nil:
		h.logger.Error("Login failed", "error", err)
		page.Error = "Login is unavailable right now. Please try again."
		h.render(w, http.StatusInternalServerError, "auth.html", page)
		return
	}

	h.auth.SetSessionCookie(w, session)
	http.Redirect(w, r, h.path("/admin"), http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if sid := h.auth.SessionID(r); sid != "" {
		if err := h.auth.DeleteSession(r.Context(), sid); err != nil {
			h.logger.Error("Logout failed", "error", err)
		}
	}
	h.auth.ClearSessionCookie(w)
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) adminPage(ctx context.Context) (adminPage, error) {
	page := adminPage{
		BasePath:   h.basePath,
		SiteTitle:  h.config.Title,
		NewSection: sectionForm{IsPublic: true},
	}
	if user, ok := auth.UserFromContext(ctx); ok {
		page.Username = user.Username
	}

	sections, err := h.content.Sections(ctx, true)
	if err != nil {
		return page, err
	}
	for _, sec := range sections {
		page.Sections = append(page.Sections, sectionFormFor(sec))
	}
	projects, err := h.content.Projects(ctx)
	if err != nil {
		return page, err
	}
	for _, p := range projects {
		page.Projects = append(page.Projects, projectFormFor(p))
	}
	return page, nil
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	page, err := h.adminPage(r.Context())
	if err != nil {
		h.logger.Error("Failed to load admin page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	page.Notice = notices[r.URL.Query().Get("notice")]
	h.render(w, http.StatusOK, "admin.html", page)
}

// adminError re-renders the admin page with msg and the submitted values
// restored by keep.
func (h *Handler) adminError(w http.ResponseWriter, r *http.Request, status int, msg string, keep func(*adminPage)) {
	page, err := h.adminPage(r.Context())
	if err != nil {
		h.logger.Error("Failed to load admin page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	page.Error = msg
	if keep != nil {
		keep(&page)
	}
	h.render(w, status, "admin.html", page)
}

// writeError reports a content service failure on the admin page.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error, keep func(*adminPage)) {
	switch {
	case errors.Is(err, content.ErrValidation):
		h.adminError(w, r, http.StatusBadRequest, validationMessage(err), keep)
	case errors.Is(err, content.ErrNotFound):
		h.adminError(w, r, http.StatusNotFound, "That item no longer exists.", nil)
	default:
		h.logger.Error("Admin request failed", "op", op, "error", err)
		h.adminError(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.", keep)
	}
}

func validationMessage(err error) string {
	fields := content.FieldErrors(err)
	if len(fields) == 0 {
		return err.Error()
	}
	lines := make([]string, 0, len(fields)+1)
	lines = append(lines, "Please fix the following:")
	for _, f := range fields {
		lines = append(lines, f.Location+": "+f.Message)
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "could not read form", http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "id must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) done(w http.ResponseWriter, r *http.Request, notice string) {
	http.Redirect(w, r, h.path("/admin?notice="+notice), http.StatusSeeOther)
}

func readSectionForm(r *http.Request) sectionForm {
	return sectionForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Content:  r.PostFormValue("content"),
		IsPublic: r.PostFormValue("isPublic") == "true",
	}
}

// sectionBody turns the form into an API body, or returns the message to
// show the user.
func sectionBody(f sectionForm) ([]byte, string) {
	raw := strings.TrimSpace(f.Content)
	if !json.Valid([]byte(raw)) {
		return nil, invalidJSONMessage
	}
	if f.Name == "hero" {
		if missing := missingHeroFields([]byte(raw)); len(missing) > 0 {
			return nil, "Invalid hero content. Missing required fields: " + strings.Join(missing, ", ")
		}
	}
	body, err := json.Marshal(map[string]any{
		"name":     f.Name,
		"content":  json.RawMessage(raw),
		"isPublic": f.IsPublic,
	})
	if err != nil {
		return nil, invalidJSONMessage
	}
	return body, ""
}

func missingHeroFields(raw []byte) []string {
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	var missing []string
	for _, name := range heroRequiredFields {
		v, ok := fields[name]
		if s, isString := v.(string); !ok || v == nil || (isString && strings.TrimSpace(s) == "") {
			missing = append(missing, name)
		}
	}
	return missing
}

func (h *Handler) createSection(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := readSectionForm(r)
	keep := func(p *adminPage) { p.NewSection = form }

	body, msg := sectionBody(form)
	if msg != "" {
		h.adminError(w, r, http.StatusBadRequest, msg, keep)
		return
	}
	if _, err := h.content.CreateSection(r.Context(), body); err != nil {
		h.writeError(w, r, "create section", err, keep)
		return
	}
	h.done(w, r, "created")
}

func (h *Handler) updateSection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok || !h.parseForm(w, r) {
		return
	}
	form := readSectionForm(r)
	form.ID = id
	keep := func(p *adminPage) {
		for i := range p.Sections {
			if p.Sections[i].ID == id {
				p.Sections[i] = form
			}
		}
	}

	body, msg := sectionBody(form)
	if msg != "" {
		h.adminError(w, r, http.StatusBadRequest, msg, keep)
		return
	}
	if _, err := h.content.UpdateSection(r.Context(), id, body); err != nil {
		h.writeError(w, r, "update section", err, keep)
		return
	}
	h.done(w, r, "saved")
}

func (h *Handler) deleteSection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.content.DeleteSection(r.Context(), id); err != nil {
		h.writeError(w, r, "delete section", err, nil)
		return
	}
	h.done(w, r, "deleted")
}

func readProjectForm(r *http.Request) projectForm {
	return projectForm{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		ImageURL:    strings.TrimSpace(r.PostFormValue("imageUrl")),
		Link:        strings.TrimSpace(r.PostFormValue("link")),
		Order:       strings.TrimSpace(r.PostFormValue("order")),
	}
}

// projectBody turns the form into an API body. An empty link is left out of
// inserts and clears the link on updates.
func projectBody(f projectForm, update bool) ([]byte, string) {
	fields := map[string]any{
		"title":       f.Title,
		"description": f.Description,
		"imageUrl":    f.ImageURL,
	}
	switch {
	case f.Link != "":
		fields["link"] = f.Link
	case update:
		fields["link"] = nil
	}
	if f.Order != "" {
		order, err := strconv.Atoi(f.Order)
		if err != nil {
			return nil, "Order must be a whole number."
		}
		fields["order"] = order
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err.Error()
	}
	return body, ""
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := readProjectForm(r)
	keep := func(p *adminPage) { p.NewProject = form }

	body, msg := projectBody(form, false)
	if msg != "" {
		h.adminError(w, r, http.StatusBadRequest, msg, keep)
		return
	}
	if _, err := h.content.CreateProject(r.Context(), body); err != nil {
		h.writeError(w, r, "create project", err, keep)
		return
	}
	h.done(w, r, "created")
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok || !h.parseForm(w, r) {
		return
	}
	form := readProjectForm(r)
	form.ID = id
	keep := func(p *adminPage) {
		for i := range p.Projects {
			if p.Projects[i].ID == id {
				p.Projects[i] = form
			}
		}
	}

	body, msg := projectBody(form, true)
	if msg != "" {
		h.adminError(w, r, http.StatusBadRequest, msg, keep)
		return
	}
	if _, err := h.content.UpdateProject(r.Context(), id, body); err != nil {
		h.writeError(w, r, "update project", err, keep)
		return
	}
	h.done(w, r, "saved")
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.content.DeleteProject(r.Context(), id); err != nil {
		h.writeError(w, r, "delete project", err, nil)
		return
	}
	h.done(w, r, "deleted")
}
