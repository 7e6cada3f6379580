package builtin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/open-cli-collective/macro-cli/api"
	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// ErrNotConfigured is returned by the Confluence-backed macros when no
// connection is configured.
var ErrNotConfigured = errors.New("confluence is not configured (run 'mcr init' or set MCR_URL, MCR_EMAIL and MCR_API_TOKEN)")

// PageSource is the model behind the Pages macro.
type PageSource interface {
	Page(id string) (*api.Page, error)
	PageURL(page *api.Page) string
}

// SpaceSource is the model behind the Spaces macro.
type SpaceSource interface {
	Space(key string) (*api.Space, error)
	SpaceURL(space *api.Space) string
}

// ConfluenceLoader is the macro.ModelLoader for the Pages and Spaces macros.
type ConfluenceLoader struct {
	Client  *api.Client
	Timeout time.Duration
	Context context.Context
}

// LoadModel returns a PageSource for "Pages" and a SpaceSource for "Spaces".
func (l *ConfluenceLoader) LoadModel(name string) (any, error) {
	switch name {
	case "Pages", "Spaces":
	default:
		return nil, fmt.Errorf("no model named '%s'", name)
	}
	if l.Client == nil {
		return nil, ErrNotConfigured
	}

	src := &confluenceSource{loader: l}
	if name == "Pages" {
		return PageSource(src), nil
	}
	return SpaceSource(src), nil
}

func (l *ConfluenceLoader) requestContext() (context.Context, context.CancelFunc) {
	parent := l.Context
	if parent == nil {
		parent = context.Background()
	}
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(parent, timeout)
}

type confluenceSource struct {
	loader *ConfluenceLoader
}

func (s *confluenceSource) Page(id string) (*api.Page, error) {
	ctx, cancel := s.loader.requestContext()
	defer cancel()
	return s.loader.Client.GetPage(ctx, id, &api.GetPageOptions{BodyFormat: "view"})
}

func (s *confluenceSource) PageURL(page *api.Page) string {
	return s.loader.Client.PageURL(page)
}

func (s *confluenceSource) Space(key string) (*api.Space, error) {
	ctx, cancel := s.loader.requestContext()
	defer cancel()
	return s.loader.Client.GetSpaceByKey(ctx, key)
}

func (s *confluenceSource) SpaceURL(space *api.Space) string {
	if space.Links.WebUI != "" {
		return s.loader.Client.BaseURL() + space.Links.WebUI
	}
	return s.loader.Client.BaseURL() + "/spaces/" + space.Key
}

// PagesMacro looks up Confluence pages by ID.
//
//	{=Pages::title(98765)=}
//	{=Pages::link(98765)=}
//	{=Pages::body(98765)=}   page body as markdown
type PagesMacro struct {
	*macro.Base
}

func newPages(r *macro.Registry) (macro.Handler, error) {
	m := &PagesMacro{Base: macro.NewBase(r, macro.NameOf((*PagesMacro)(nil)))}
	m.Handle(macro.DefaultMethod, m.title)
	m.Handle("title", m.title)
	m.Handle("link", m.link)
	m.Handle("body", m.body)
	return m, nil
}

func (m *PagesMacro) load(method string, args []string) (PageSource, *api.Page, error) {
	if err := arity(m, method, args, 1, 1); err != nil {
		return nil, nil, err
	}
	model, err := m.Model()
	if err != nil {
		return nil, nil, err
	}
	src, ok := model.(PageSource)
	if !ok {
		return nil, nil, fmt.Errorf("model for macro '%s' is %T, not a page source", m.Name(), model)
	}
	page, err := src.Page(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get page %s: %w", args[0], err)
	}
	return src, page, nil
}

func (m *PagesMacro) title(args ...string) (string, error) {
	_, page, err := m.load("title", args)
	if err != nil {
		return "", err
	}
	return page.Title, nil
}

func (m *PagesMacro) link(args ...string) (string, error) {
	src, page, err := m.load("link", args)
	if err != nil {
		return "", err
	}
	return src.PageURL(page), nil
}

func (m *PagesMacro) body(args ...string) (string, error) {
	_, page, err := m.load("body", args)
	if err != nil {
		return "", err
	}
	if page.Body == nil || page.Body.View == nil {
		return "", nil
	}
	return htmlToMarkdown(page.Body.View.Value)
}

var spaceKeyPattern = regexp.MustCompile(`^(~[A-Za-z0-9]+|[A-Z0-9]+)$`)

// SpacesMacro looks up Confluence spaces by key. The key comes from the
// first parameter or, failing that, from the context.
//
//	{=Spaces(DEV)=}           space name
//	{=Spaces::link|team=}     link to the space keyed by the "team" context entry
type SpacesMacro struct {
	*macro.Base
}

func newSpaces(r *macro.Registry) (macro.Handler, error) {
	m := &SpacesMacro{Base: macro.NewBase(r, macro.NameOf((*SpacesMacro)(nil)))}
	m.ValidateContextWith(func(ctx any) error {
		if isMapping(ctx) {
			return nil
		}
		key, ok := ctx.(string)
		if !ok || !spaceKeyPattern.MatchString(key) {
			return macro.InvalidContext("expected a space key, got %v", ctx)
		}
		return nil
	})
	m.Handle(macro.DefaultMethod, m.name)
	m.Handle("name", m.name)
	m.Handle("link", m.link)
	m.Handle("description", m.description)
	return m, nil
}

func (m *SpacesMacro) load(method string, args []string) (SpaceSource, *api.Space, error) {
	if err := arity(m, method, args, 0, 1); err != nil {
		return nil, nil, err
	}
	key := m.ContextString()
	if len(args) == 1 {
		key = args[0]
	}
	if key == "" {
		return nil, nil, fmt.Errorf("macro '%s' needs a space key as parameter or context", m.Name())
	}
	if !spaceKeyPattern.MatchString(key) {
		return nil, nil, fmt.Errorf("invalid space key '%s'", key)
	}

	model, err := m.Model()
	if err != nil {
		return nil, nil, err
	}
	src, ok := model.(SpaceSource)
	if !ok {
		return nil, nil, fmt.Errorf("model for macro '%s' is %T, not a space source", m.Name(), model)
	}
	space, err := src.Space(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get space %s: %w", key, err)
	}
	return src, space, nil
}

func (m *SpacesMacro) name(args ...string) (string, error) {
	_, space, err := m.load("name", args)
	if err != nil {
		return "", err
	}
	return space.Name, nil
}

func (m *SpacesMacro) link(args ...string) (string, error) {
	src, space, err := m.load("link", args)
	if err != nil {
		return "", err
	}
	return src.SpaceURL(space), nil
}

func (m *SpacesMacro) description(args ...string) (string, error) {
	_, space, err := m.load("description", args)
	if err != nil {
		return "", err
	}
	if space.Description == nil || space.Description.Plain == nil {
		return "", nil
	}
	return space.Description.Plain.Value, nil
}
