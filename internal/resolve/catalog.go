// Package resolve maps spoken element queries onto concrete page
// elements, either through the named-region catalog or by scoring the
// interactive elements of the live document.
package resolve

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/themobileprof/voicepilot/internal/intent"
	"github.com/themobileprof/voicepilot/pkg/models"
)

// Route keys the catalog groups regions under.
const (
	RouteHome    = "home"
	RouteSignup  = "signup"
	RouteLogin   = "login"
	RouteCourse  = "course_detail"
	RouteAdmin   = "admin_dashboard"
	RouteUnknown = "unknown"
)

// Catalog holds the named page regions a voice query can target,
// grouped by route key. Region order within a route is significant:
// the first keyword hit wins.
type Catalog struct {
	routes     map[string][]models.Region
	normalizer *intent.TextNormalizer
}

// NewCatalog creates a catalog with the built-in region set.
func NewCatalog() *Catalog {
	return &Catalog{
		routes:     buildRegions(),
		normalizer: intent.NewTextNormalizer(),
	}
}

func buildRegions() map[string][]models.Region {
	return map[string][]models.Region{
		RouteHome: {
			{
				Name:        "create_course_btn",
				Selector:    "button:contains('Create course')",
				Description: "the create course button",
				Keywords:    []string{"create course", "new course", "make a course"},
			},
			{
				Name:        "course_cards",
				Selector:    "[class*='course']",
				Description: "your course cards",
				Keywords:    []string{"my courses", "course cards", "courses"},
			},
			{
				Name:        "voice_button",
				Selector:    "button[title*='Voice']",
				Description: "the voice assistant button",
				Keywords:    []string{"voice button", "microphone", "assistant button"},
			},
			{
				Name:        "teaching_tab",
				Selector:    "button:contains('Created by you')",
				Description: "the tab listing courses you created",
				Keywords:    []string{"teaching tab", "created by you", "teaching"},
			},
			{
				Name:        "learning_tab",
				Selector:    "button:contains('Enrolled courses')",
				Description: "the tab listing courses you joined",
				Keywords:    []string{"learning tab", "enrolled courses", "learning"},
			},
		},
		RouteSignup: {
			{
				Name:        "email_field",
				Selector:    "input[type='email']",
				Description: "the email field",
				Keywords:    []string{"email field", "email"},
			},
			{
				Name:        "confirm_password",
				Selector:    "input[name*='confirm']",
				Description: "the confirm password field",
				Keywords:    []string{"confirm password", "confirm"},
			},
			{
				Name:        "password_field",
				Selector:    "input[type='password']",
				Description: "the password field",
				Keywords:    []string{"password field", "password"},
			},
			{
				Name:        "signup_button",
				Selector:    "button[type='submit']",
				Description: "the sign up button",
				Keywords:    []string{"sign up button", "signup button", "submit button"},
			},
			{
				Name:        "google_signin",
				Selector:    "#google-signin-button",
				Description: "the Google sign-in button",
				Keywords:    []string{"google", "sign in with google", "google button"},
			},
			{
				Name:        "login_link",
				Selector:    "a[href*='login']",
				Description: "the link to the login page",
				Keywords:    []string{"login link", "already have an account"},
			},
		},
		RouteLogin: {
			{
				Name:        "email_field",
				Selector:    "input[type='email']",
				Description: "the email field",
				Keywords:    []string{"email field", "email"},
			},
			{
				Name:        "password_field",
				Selector:    "input[type='password']",
				Description: "the password field",
				Keywords:    []string{"password field", "password"},
			},
			{
				Name:        "login_button",
				Selector:    "button[type='submit']",
				Description: "the log in button",
				Keywords:    []string{"login button", "log in button", "submit button"},
			},
			{
				Name:        "google_signin",
				Selector:    "#google-signin-button",
				Description: "the Google sign-in button",
				Keywords:    []string{"google", "sign in with google", "google button", "create account", "account"},
			},
			{
				Name:        "forgot_password",
				Selector:    "a[href*='forgot']",
				Description: "the forgot password link",
				Keywords:    []string{"forgot password", "forgot"},
			},
			{
				Name:        "signup_link",
				Selector:    "a[href*='signup']",
				Description: "the link to the sign up page",
				Keywords:    []string{"signup link", "sign up link"},
			},
		},
		RouteCourse: {
			{
				Name:        "join_button",
				Selector:    "button:contains('Join')",
				Description: "the join course button",
				Keywords:    []string{"join button", "join course", "join"},
			},
			{
				Name:        "task_list",
				Selector:    "[class*='task']",
				Description: "the task list",
				Keywords:    []string{"task list", "tasks", "assignments"},
			},
			{
				Name:        "submit_button",
				Selector:    "button:contains('Submit')",
				Description: "the submit button",
				Keywords:    []string{"submit button", "turn in"},
			},
			{
				Name:        "course_nav",
				Selector:    "[class*='nav']",
				Description: "the course navigation",
				Keywords:    []string{"navigation", "course menu"},
			},
		},
		RouteAdmin: {
			{
				Name:        "create_course_btn",
				Selector:    "button:contains('Create')",
				Description: "the create course button",
				Keywords:    []string{"create course", "new course"},
			},
			{
				Name:        "course_list",
				Selector:    "[class*='course']",
				Description: "the course list",
				Keywords:    []string{"course list", "courses"},
			},
			{
				Name:        "student_list",
				Selector:    "[class*='student']",
				Description: "the student list",
				Keywords:    []string{"students", "student list"},
			},
			{
				Name:        "analytics",
				Selector:    "[class*='analytic']",
				Description: "the analytics panel",
				Keywords:    []string{"analytics", "stats", "reports"},
			},
		},
	}
}

// RouteKey normalizes a browser route to a catalog key.
func RouteKey(route string) string {
	r := strings.ToLower(strings.TrimSpace(route))
	switch {
	case r == "/" || r == "/home" || r == "":
		return RouteHome
	case strings.Contains(r, "/school/admin"):
		return RouteAdmin
	case strings.Contains(r, "/signup"):
		return RouteSignup
	case strings.Contains(r, "/login"):
		return RouteLogin
	case strings.Contains(r, "/course/"):
		return RouteCourse
	default:
		return RouteUnknown
	}
}

// Regions returns the catalog regions for a route, outermost first.
func (c *Catalog) Regions(route string) []models.Region {
	return c.routes[RouteKey(route)]
}

// Find looks a region up by name under a route.
func (c *Catalog) Find(route, name string) (models.Region, bool) {
	for _, region := range c.Regions(route) {
		if region.Name == name {
			return region, true
		}
	}
	return models.Region{}, false
}

// Match returns the first region on the route whose keywords occur in
// the utterance, if any.
func (c *Catalog) Match(route, utterance string) (models.Region, bool) {
	normalized := c.normalizer.Normalize(utterance)
	if normalized == "" {
		return models.Region{}, false
	}
	padded := " " + normalized + " "
	for _, region := range c.Regions(route) {
		for _, kw := range region.Keywords {
			needle := " " + c.normalizer.Normalize(kw) + " "
			if strings.Contains(padded, needle) {
				return region, true
			}
		}
	}
	return models.Region{}, false
}

// catalogFile is the on-disk shape of a region catalog override.
type catalogFile struct {
	Routes map[string][]models.Region `yaml:"routes"`
}

// LoadCatalog reads a catalog override from a YAML file. Routes
// present in the file replace the built-in set for that route; absent
// routes keep their defaults.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	catalog := NewCatalog()
	for route, regions := range file.Routes {
		for i := range regions {
			if regions[i].Name == "" {
				return nil, fmt.Errorf("catalog route %s: region %d has no name", route, i)
			}
			if regions[i].Selector == "" {
				return nil, fmt.Errorf("catalog route %s: region %s has no selector", route, regions[i].Name)
			}
		}
		catalog.routes[route] = regions
	}
	return catalog, nil
}
