package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/feeders"
	"github.com/GoCodeAlone/folio/modules/auth"
	"github.com/GoCodeAlone/folio/modules/chimux"
	"github.com/GoCodeAlone/folio/modules/database"
	"github.com/GoCodeAlone/folio/modules/jsonschema"
)

const bddConfig = `
content:
  store: %s
  admin:
    username: admin
    password: correct horse
database:
  connections:
    default:
      dsn: %s
`

type contentBDDContext struct {
	dir        string
	configPath string
	app        *folio.StdApplication
	server     *httptest.Server
	client     *http.Client
	status     int
	body       []byte
	heroID     int
}

func (c *contentBDDContext) reset() {
	c.stop()
	if c.dir != "" {
		_ = os.RemoveAll(c.dir)
	}
	*c = contentBDDContext{}
}

func (c *contentBDDContext) stop() {
	if c.server != nil {
		c.server.Close()
		c.server = nil
	}
	if c.app != nil {
		_ = c.app.Stop()
		c.app = nil
	}
}

func (c *contentBDDContext) aPortfolioApplicationUsingTheStore(store string) error {
	dir, err := os.MkdirTemp("", "folio-bdd-")
	if err != nil {
		return err
	}
	c.dir = dir
	c.configPath = filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(bddConfig, store, filepath.Join(dir, "folio.db"))
	if err := os.WriteFile(c.configPath, []byte(cfg), 0o600); err != nil {
		return err
	}
	return c.start()
}

func (c *contentBDDContext) start() error {
	app := folio.NewStdApplication(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	app.SetConfigFeeders(feeders.NewYamlFeeder(c.configPath))

	router := chimux.NewChiMuxModule()
	app.RegisterModule(router)
	app.RegisterModule(database.NewModule())
	app.RegisterModule(jsonschema.NewModule())
	app.RegisterModule(NewModule())
	app.RegisterModule(auth.NewModule())

	if err := app.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := app.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	c.app = app
	c.server = httptest.NewServer(router)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	c.client = &http.Client{Jar: jar}
	return nil
}

func (c *contentBDDContext) theApplicationRestarts() error {
	c.stop()
	return c.start()
}

func (c *contentBDDContext) send(method, path string, body []byte) error {
	path = strings.ReplaceAll(path, "{hero}", strconv.Itoa(c.heroID))
	req, err := http.NewRequest(method, c.server.URL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.status = resp.StatusCode
	c.body, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	c.rememberHero()
	return nil
}

// rememberHero records the hero id from section listings so later steps
// can address it.
func (c *contentBDDContext) rememberHero() {
	var sections []Section
	if json.Unmarshal(c.body, &sections) != nil {
		return
	}
	for _, s := range sections {
		if s.Name == "hero" {
			c.heroID = s.ID
		}
	}
}

func (c *contentBDDContext) iRequest(method, path string) error {
	return c.send(method, path, nil)
}

func (c *contentBDDContext) iRequestWithBody(method, path string, body *godog.DocString) error {
	return c.send(method, path, []byte(body.Content))
}

func (c *contentBDDContext) iLogInAsWithPassword(username, password string) error {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}
	return c.send(http.MethodPost, "/api/login", body)
}

func (c *contentBDDContext) iLogOut() error {
	return c.send(http.MethodPost, "/api/logout", nil)
}

func (c *contentBDDContext) theResponseStatusShouldBe(status int) error {
	if c.status != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, c.status, c.body)
	}
	return nil
}

func (c *contentBDDContext) theResponseShouldList(count int, kind string) error {
	var items []json.RawMessage
	if err := json.Unmarshal(c.body, &items); err != nil {
		return fmt.Errorf("response is not a list of %s: %w", kind, err)
	}
	if len(items) != count {
		return fmt.Errorf("expected %d %s, got %d", count, kind, len(items))
	}
	return nil
}

func (c *contentBDDContext) theFirstSectionShouldBeNamed(name string) error {
	var sections []Section
	if err := json.Unmarshal(c.body, &sections); err != nil {
		return err
	}
	if len(sections) == 0 {
		return errors.New("no sections returned")
	}
	if sections[0].Name != name {
		return fmt.Errorf("expected first section %q, got %q", name, sections[0].Name)
	}
	return nil
}

func (c *contentBDDContext) theResponseFieldShouldBe(field, want string) error {
	var obj map[string]any
	if err := json.Unmarshal(c.body, &obj); err != nil {
		return err
	}
	if got := fmt.Sprint(obj[field]); got != want {
		return fmt.Errorf("expected %s %q, got %q", field, want, got)
	}
	return nil
}

func TestContentAPIBDD(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			c := &contentBDDContext{}

			ctx.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
				c.reset()
				return ctx, err
			})

			ctx.Step(`^a portfolio application using the "(memory|sqlite)" store$`, c.aPortfolioApplicationUsingTheStore)
			ctx.Step(`^the application restarts$`, c.theApplicationRestarts)
			ctx.Step(`^I request "(GET|POST|PATCH|DELETE)" "([^"]*)"$`, c.iRequest)
			ctx.Step(`^I request "(GET|POST|PATCH|DELETE)" "([^"]*)" with body:$`, c.iRequestWithBody)
			ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, c.iLogInAsWithPassword)
			ctx.Step(`^I log out$`, c.iLogOut)
			ctx.Step(`^the response status should be (\d+)$`, c.theResponseStatusShouldBe)
			ctx.Step(`^the response should list (\d+) (sections|projects)$`, c.theResponseShouldList)
			ctx.Step(`^the first section should be named "([^"]*)"$`, c.theFirstSectionShouldBeNamed)
			ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, c.theResponseFieldShouldBe)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
