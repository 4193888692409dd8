package site

import (
	"encoding/json"
	"html/template"

	"github.com/GoCodeAlone/folio/modules/content"
)

type heroView struct {
	Title          string
	Subtitle       string
	Experience     string
	Projects       string
	Overview       template.HTML
	ProfilePicture string
	Contact        contactView
}

type contactView struct {
	Location string `json:"location"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type heroContent struct {
	Title          string      `json:"title"`
	Subtitle       string      `json:"subtitle"`
	Experience     string      `json:"experience"`
	Projects       string      `json:"projects"`
	Overview       string      `json:"overview"`
	ProfilePicture string      `json:"profilePicture"`
	Contact        contactView `json:"contact"`
}

type educationView struct {
	Degree       string   `json:"degree"`
	Period       string   `json:"period"`
	Institution  string   `json:"institution"`
	Achievements []string `json:"achievements"`
}

type skillsView struct {
	Categories []skillCategory `json:"categories"`
}

type skillCategory struct {
	Title  string      `json:"title"`
	Skills []skillItem `json:"skills"`
}

// skillItem is stored either as a bare string or as {"name", "level"}.
// Level is a percentage; zero hides the bar.
type skillItem struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func (s *skillItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = skillItem{Name: name}
		return nil
	}
	type plain skillItem
	return json.Unmarshal(data, (*plain)(s))
}

type goalsView struct {
	Goals  []goalItem `json:"goals"`
	Vision string     `json:"vision"`
}

// goalItem is stored either as a bare string or as {"title", "description"}.
type goalItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (g *goalItem) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		*g = goalItem{Title: title}
		return nil
	}
	type plain goalItem
	return json.Unmarshal(data, (*plain)(g))
}

type homePage struct {
	BasePath   string
	SiteTitle  string
	Background string
	SignedIn   bool
	Hero       heroView
	Education  educationView
	Projects   []content.Project
	Skills     skillsView
	Goals      goalsView
}

type authPage struct {
	BasePath  string
	SiteTitle string
	Username  string
	Error     string
}

type sectionForm struct {
	ID       int
	Name     string
	Content  string
	IsPublic bool
}

type projectForm struct {
	ID          int
	Title       string
	Description string
	ImageURL    string
	Link        string
	Order       string
}

type adminPage struct {
	BasePath   string
	SiteTitle  string
	Username   string
	Notice     string
	Error      string
	Sections   []sectionForm
	Projects   []projectForm
	NewSection sectionForm
	NewProject projectForm
}

func sectionFormFor(sec content.Section) sectionForm {
	return sectionForm{ID: sec.ID, Name: sec.Name, Content: prettyJSON(sec.Content), IsPublic: sec.IsPublic}
}

func projectFormFor(p content.Project) projectForm {
	f := projectForm{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Order:       itoa(p.Order),
	}
	if p.Link != nil {
		f.Link = *p.Link
	}
	return f
}

func prettyJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}
