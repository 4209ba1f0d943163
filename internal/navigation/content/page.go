package content

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/framenav/internal/navigation/address"
	"github.com/GriffinCanCode/framenav/internal/navigation/frame"
)

// KeepAliveMeta is the meta tag a page uses to opt out of (or into) the
// frame content cache: <meta name="framenav-keep-alive" content="false">
const KeepAliveMeta = "framenav-keep-alive"

var (
	sanitizer   = bluemonday.UGCPolicy()
	mdConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
)

// Link is a resolved hyperlink
type Link struct {
	Text string
	URL  *url.URL
}

// Heading is an h1-h6 element
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Page is a parsed HTML document. It takes part in navigation: it tracks
// whether it is shown and scrolls to fragments.
type Page struct {
	URL         *url.URL
	Title       string
	Description string
	// Body is the sanitized body markup
	Body     string
	Links    []Link
	Headings []Heading

	keepAlive *bool
	root      *html.Node

	fragment string
	anchor   string
	visible  bool
	visits   int

	mdOnce   sync.Once
	markdown string
}

// NewPage parses an HTML document fetched from u
func NewPage(u *url.URL, data []byte, mediaType string) (*Page, error) {
	markup, err := ToUTF8(data, mediaType)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &Page{
		URL:   u,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if len(doc.Nodes) > 0 {
		p.root = doc.Nodes[0]
	}

	doc.Find("meta[name]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		value, _ := s.Attr("content")
		switch strings.ToLower(name) {
		case "description":
			p.Description = strings.TrimSpace(value)
		case KeepAliveMeta:
			if keep, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
				p.keepAlive = &keep
			}
		}
	})

	base := u
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved, ok := address.Resolve(u, href); ok {
			base = resolved
		}
	}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if target, ok := address.Resolve(base, href); ok {
			p.Links = append(p.Links, Link{Text: strings.TrimSpace(s.Text()), URL: target})
		}
	})

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		id, _ := s.Attr("id")
		p.Headings = append(p.Headings, Heading{Level: level, ID: id, Text: strings.TrimSpace(s.Text())})
	})

	body, err := doc.Find("body").First().Html()
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	p.Body = sanitizer.Sanitize(body)

	return p, nil
}

// String returns the title, or the address for untitled pages
func (p *Page) String() string {
	if p.Title != "" {
		return p.Title
	}
	return address.Key(p.URL)
}

// Text renders the page as Markdown
func (p *Page) Text() string {
	p.mdOnce.Do(func() {
		opts := []converter.ConvertOptionFunc{}
		if p.URL != nil {
			opts = append(opts, converter.WithDomain(p.URL.String()))
		}
		md, err := mdConverter.ConvertString(p.Body, opts...)
		if err != nil {
			md = html.UnescapeString(p.Body)
		}
		p.markdown = md
	})
	return p.markdown
}

// KeepAlive reports the page's own caching preference
func (p *Page) KeepAlive() (bool, bool) {
	if p.keepAlive == nil {
		return false, false
	}
	return *p.keepAlive, true
}

// SetKeepAlive records a caching preference unless the document declared
// its own
func (p *Page) SetKeepAlive(keep bool) {
	if p.keepAlive == nil {
		p.keepAlive = &keep
	}
}

// Find returns the element with the given id, or the anchor with that
// name
func (p *Page) Find(fragment string) (*html.Node, bool) {
	if p.root == nil || fragment == "" || strings.ContainsAny(fragment, `'"`) {
		return nil, false
	}
	expr := fmt.Sprintf(`//*[@id='%s'] | //a[@name='%s']`, fragment, fragment)
	node, err := htmlquery.Query(p.root, expr)
	if err != nil || node == nil {
		return nil, false
	}
	return node, true
}

// Fragment returns the fragment last scrolled to
func (p *Page) Fragment() string { return p.fragment }

// Anchor returns the text of the element the fragment points at
func (p *Page) Anchor() string { return p.anchor }

// Visible reports whether a frame currently shows the page
func (p *Page) Visible() bool { return p.visible }

// Visits counts how often the page has been navigated to
func (p *Page) Visits() int { return p.visits }

// OnNavigatingFrom implements frame.Lifecycle; pages never veto
func (p *Page) OnNavigatingFrom(*frame.NavigatingEvent) {}

// OnNavigatedFrom implements frame.Lifecycle
func (p *Page) OnNavigatedFrom(*frame.NavigatedEvent) {
	p.visible = false
}

// OnNavigatedTo implements frame.Lifecycle
func (p *Page) OnNavigatedTo(*frame.NavigatedEvent) {
	p.visible = true
	p.visits++
}

// OnFragmentNavigation implements frame.Lifecycle
func (p *Page) OnFragmentNavigation(e *frame.FragmentEvent) {
	p.fragment = e.Fragment
	p.anchor = ""
	if node, ok := p.Find(e.Fragment); ok {
		p.anchor = strings.TrimSpace(htmlquery.InnerText(node))
	}
}

var _ frame.Lifecycle = (*Page)(nil)
