package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FetchSettings 控制网页抓取行为。
type FetchSettings struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// AllowPrivate 允许访问回环、内网和链路本地地址；默认拒绝。
	AllowPrivate bool
}

// PageFetcher downloads a web page and reduces it to readable text.
type PageFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// NewPageFetcher builds a fetcher. When client is nil it builds one whose
// dialer refuses non-public addresses unless cfg.AllowPrivate is set.
func NewPageFetcher(client *http.Client, cfg FetchSettings) *PageFetcher {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
		if !cfg.AllowPrivate {
			client.Transport = publicOnlyTransport()
		}
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "ccreator/1.0"
	}
	return &PageFetcher{client: client, maxBytes: maxBytes, userAgent: ua}
}

// Fetch GETs rawURL and extracts its title and body text.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (Source, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Source{}, fmt.Errorf("%w: invalid url %q", ErrFetchFailed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Source{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Source{}, fmt.Errorf("%w: %s returned %d", ErrFetchFailed, u.Host, resp.StatusCode)
	}

	kind, err := pageKind(resp.Header.Get("Content-Type"))
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %v", ErrFetchFailed, u.String(), err)
	}

	body := io.LimitReader(resp.Body, f.maxBytes)
	src := Source{URL: u.String()}
	if kind == kindPlain {
		b, err := io.ReadAll(body)
		if err != nil {
			return Source{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		src.Text = normalizeSpace(string(b))
	} else {
		src.Title, src.Text, err = ExtractText(body)
		if err != nil {
			return Source{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
	}
	if src.Text == "" {
		return Source{}, fmt.Errorf("%w: no readable text at %s", ErrFetchFailed, u.String())
	}
	return src, nil
}

const (
	kindHTML = iota
	kindPlain
)

// pageKind maps a Content-Type to the extractor to use. A missing header is
// read as HTML; binary types are refused.
func pageKind(contentType string) (int, error) {
	if strings.TrimSpace(contentType) == "" {
		return kindHTML, nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return 0, fmt.Errorf("bad content type %q", contentType)
	}
	switch {
	case mt == "text/html" || mt == "application/xhtml+xml":
		return kindHTML, nil
	case strings.HasPrefix(mt, "text/"):
		return kindPlain, nil
	default:
		return 0, fmt.Errorf("unsupported content type %s", mt)
	}
}

var errBlockedAddress = errors.New("address is not public")

// publicOnlyTransport checks every dialed address, which also covers redirects.
// Proxies are not used: the proxy address would be checked instead of the page.
func publicOnlyTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   denyNonPublic,
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	t.DialContext = dialer.DialContext
	return t
}

func denyNonPublic(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil || !isPublicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", errBlockedAddress, address)
	}
	return nil
}

func isPublicAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	if !ip.IsValid() {
		return false
	}
	return !ip.IsLoopback() &&
		!ip.IsPrivate() &&
		!ip.IsUnspecified() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsInterfaceLocalMulticast() &&
		!ip.IsMulticast()
}

var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Aside:    true,
	atom.Form:     true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Template: true,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Article: true, atom.Section: true, atom.Blockquote: true, atom.Pre: true,
	atom.Tr: true, atom.Table: true,
}

// ExtractText parses HTML and returns the page title and visible text, one block per line.
func ExtractText(r io.Reader) (string, string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var title string
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Title {
				if title == "" && n.FirstChild != nil {
					title = normalizeSpace(n.FirstChild.Data)
				}
				return
			}
			if skipped[n.DataAtom] {
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blocks[n.DataAtom] {
			sb.WriteByte('\n')
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = normalizeSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return title, strings.Join(lines, "\n"), nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
