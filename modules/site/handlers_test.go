package site

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome_RendersStoredSections(t *testing.T) {
	s := newTestSite(t, true)

	rec := s.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Hi, I&#39;m Aditya Dimri")
	assert.Contains(t, body, "Computer Science Student &amp; Tech Enthusiast")
	assert.Contains(t, body, "Graphic Era Hill University")
	assert.Contains(t, body, "Build an AI ecosystem for India")
	assert.Contains(t, body, "Dehradun")
	assert.Contains(t, body, "No projects yet.")
	assert.NotContains(t, body, `href="/admin"`)
}

func TestHome_FallsBackToDefaults(t *testing.T) {
	s := newTestSite(t, false)

	rec := s.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "A passionate developer focused on creating impactful digital experiences")
	assert.Contains(t, body, "Frontend Development")
	assert.Contains(t, body, "Technical Excellence")
	assert.Contains(t, body, "Vision Statement")
}

func TestHome_RendersOverviewMarkdown(t *testing.T) {
	s := newTestSite(t, false)
	_, err := s.content.CreateSection(context.Background(), []byte(`{"name":"hero","content":{
		"title":"T","subtitle":"S","experience":"E","projects":"P",
		"overview":"Loves **Go** <script>alert(1)</script>"}}`))
	require.NoError(t, err)

	body := s.get("/").Body.String()
	assert.Contains(t, body, "<strong>Go</strong>")
	assert.NotContains(t, body, "<script>alert(1)</script>")
}

func TestHome_HidesPrivateSections(t *testing.T) {
	s := newTestSite(t, false)
	_, err := s.content.CreateSection(context.Background(), []byte(`{"name":"education","isPublic":false,"content":{
		"degree":"Secret Degree","period":"now","institution":"Hidden U","achievements":[]}}`))
	require.NoError(t, err)

	body := s.get("/", s.login(t)).Body.String()
	assert.NotContains(t, body, "Secret Degree")
	assert.Contains(t, body, "B.Tech in Computer Science")
	assert.Contains(t, body, `href="/admin"`)
}

func TestAuthPage(t *testing.T) {
	s := newTestSite(t, false)

	rec := s.get("/auth")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin Access")

	rec = s.post("/auth", url.Values{"username": {adminUser}, "password": {"wrong password"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password.")
	assert.Contains(t, rec.Body.String(), `value="admin"`)

	cookie := s.login(t)
	rec = s.get("/auth", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}

func TestAdmin_RequiresSession(t *testing.T) {
	s := newTestSite(t, false)

	rec := s.get("/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth", rec.Header().Get("Location"))

	rec = s.post("/admin/sections", url.Values{"name": {"x"}, "content": {"{}"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdmin_ListsContent(t *testing.T) {
	s := newTestSite(t, true)
	cookie := s.login(t)

	rec := s.get("/admin?notice=saved", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome, admin")
	assert.Contains(t, body, "Changes saved.")
	assert.Contains(t, body, `value="education"`)
}

func TestAdmin_SectionForms(t *testing.T) {
	s := newTestSite(t, true)
	cookie := s.login(t)
	ctx := context.Background()

	rec := s.post("/admin/sections", url.Values{"name": {"notes"}, "content": {`{"a": 1,}`}, "isPublic": {"true"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid JSON")
	assert.Contains(t, rec.Body.String(), `value="notes"`)

	rec = s.post("/admin/sections", url.Values{"name": {"notes"}, "content": {`{"a": 1}`}}, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin?notice=created", rec.Header().Get("Location"))

	all, err := s.content.Sections(ctx, true)
	require.NoError(t, err)
	notes := all[len(all)-1]
	assert.Equal(t, "notes", notes.Name)
	assert.False(t, notes.IsPublic, "unchecked box means private")

	hero := all[0]
	require.Equal(t, "hero", hero.Name)
	rec = s.post("/admin/sections/"+strconv.Itoa(hero.ID), url.Values{
		"name":     {"hero"},
		"content":  {`{"title": "New title", "overview": ""}`},
		"isPublic": {"true"},
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields: subtitle, experience, projects, overview")

	rec = s.post("/admin/sections/"+strconv.Itoa(notes.ID)+"/delete", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	all, err = s.content.Sections(ctx, true)
	require.NoError(t, err)
	assert.NotEqual(t, "notes", all[len(all)-1].Name)
}

func TestAdmin_SchemaErrorsAreShown(t *testing.T) {
	s := newTestSite(t, true)
	cookie := s.login(t)

	rec := s.post("/admin/projects", url.Values{
		"title":       {"Folio"},
		"description": {"This site"},
		"imageUrl":    {"not a url"},
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "/imageUrl")
}

func TestAdmin_ProjectForms(t *testing.T) {
	s := newTestSite(t, false)
	cookie := s.login(t)
	ctx := context.Background()

	rec := s.post("/admin/projects", url.Values{
		"title":       {"Folio"},
		"description": {"This site"},
		"imageUrl":    {"https://img.example/folio.png"},
		"link":        {"https://folio.example"},
		"order":       {"first"},
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order must be a whole number.")

	rec = s.post("/admin/projects", url.Values{
		"title":       {"Folio"},
		"description": {"This site"},
		"imageUrl":    {"https://img.example/folio.png"},
		"link":        {"https://folio.example"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	projects, err := s.content.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	p := projects[0]
	require.NotNil(t, p.Link)

	rec = s.post("/admin/projects/"+strconv.Itoa(p.ID), url.Values{
		"title":       {"Folio v2"},
		"description": {"This site"},
		"imageUrl":    {"https://img.example/folio.png"},
		"order":       {"5"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	projects, err = s.content.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Folio v2", projects[0].Title)
	assert.Nil(t, projects[0].Link, "an empty link clears it")
	assert.Equal(t, 5, projects[0].Order)

	body := s.get("/").Body.String()
	assert.Contains(t, body, "Folio v2")

	rec = s.post("/admin/projects/999", url.Values{"title": {"x"}, "description": {"y"}, "imageUrl": {"https://x.example"}}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.post("/admin/projects/"+strconv.Itoa(p.ID)+"/delete", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	projects, err = s.content.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestAdmin_Logout(t *testing.T) {
	s := newTestSite(t, false)
	cookie := s.login(t)

	rec := s.post("/admin/logout", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = s.get("/admin", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code, "the old cookie no longer works")
}

func TestSite_BasePath(t *testing.T) {
	s := newTestSiteAt(t, true, "/site")

	rec := s.get("/site/admin")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/site/auth", rec.Header().Get("Location"))

	rec = s.get("/site/auth")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/site/auth"`)
	assert.Contains(t, rec.Body.String(), `href="/site/"`)

	rec = s.post("/site/auth", url.Values{"username": {adminUser}, "password": {adminPassword}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/site/admin", rec.Header().Get("Location"))
	cookie := s.login(t)

	rec = s.get("/site/auth", cookie)
	assert.Equal(t, "/site/admin", rec.Header().Get("Location"))

	rec = s.get("/site/admin", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/site/admin/sections"`)
	assert.Contains(t, body, `action="/site/admin/projects"`)
	assert.Contains(t, body, `action="/site/admin/logout"`)
	assert.NotContains(t, body, `action="/admin`)

	rec = s.post("/site/admin/sections", url.Values{
		"name":     {"about"},
		"content":  {`{"text": "hello"}`},
		"isPublic": {"true"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/site/admin?notice=created", rec.Header().Get("Location"))

	assert.Contains(t, s.get("/site/", cookie).Body.String(), `href="/site/admin"`)

	rec = s.post("/site/admin/logout", nil, cookie)
	assert.Equal(t, "/site/", rec.Header().Get("Location"))
}
