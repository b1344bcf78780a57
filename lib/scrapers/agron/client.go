// Package agron scrapes the Joomla/Agron catalog software behind the
// library.org.il portals. The portals expose no machine-readable API;
// every operation here works against server-rendered Hebrew HTML.
package agron

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"libraryil/lib/htmlutil"
	"libraryil/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/agron")

var (
	ErrLoginFailed      = fmt.Errorf("failed to login to the library portal")
	ErrSessionExpired   = fmt.Errorf("session has expired, login again")
	ErrNotAuthenticated = fmt.Errorf("not logged in")
)

// State is the session lifecycle of one client. It is written only by
// the owning client's operations.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateExpired
)

const loginPath = "/mng"

type Client struct {
	Slug    string
	BaseUrl *url.URL
	Http    *resty.Client

	state    State
	username string
	password string
}

type Options struct {
	// the portal identifier, e.g. "shemesh" for shemesh.library.org.il
	Slug string
	// overrides the https://<slug>.library.org.il default; used by tests
	// to point the client at a local fixture server
	BaseUrl  string
	Username string
	Password string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	rawUrl := opts.BaseUrl
	if rawUrl == "" {
		rawUrl = fmt.Sprintf("https://%s.library.org.il", opts.Slug)
	}
	baseUrl, err := url.Parse(rawUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(rawUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	client.SetHeader("accept-language", "he-IL,he;q=0.9,en-US;q=0.8,en;q=0.7")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/agron/http")

	c := &Client{
		Slug:     opts.Slug,
		BaseUrl:  baseUrl,
		Http:     client,
		username: opts.Username,
		password: opts.Password,
	}
	return c, nil
}

func (c *Client) State() State {
	return c.state
}

func (c *Client) Close() {
	c.Http.GetClient().CloseIdleConnections()
}

func parseDoc(res *resty.Response) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// the url the response actually landed on, after redirects
func finalURL(res *resty.Response) *url.URL {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL
	}
	return res.Request.RawRequest.URL
}

// findRequestToken extracts the Joomla anti-forgery token: a hidden
// input whose *name* is a 32 character lowercase-hex string. Field names
// are otherwise unstable, so this is the only reliable selector.
func findRequestToken(doc *goquery.Document) string {
	token := ""
	doc.Find("input[type=hidden]").EachWithBreak(func(_ int, input *goquery.Selection) bool {
		name := input.AttrOr("name", "")
		if len(name) != 32 {
			return true
		}
		for _, r := range name {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				return true
			}
		}
		token = name
		return false
	})
	return token
}

// Login authenticates against the portal. Empty arguments fall back to
// the credentials given at construction. On success the client holds a
// session cookie and transitions to StateAuthenticated.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	if username == "" {
		username = c.username
	}
	if password == "" {
		password = c.password
	}
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrLoginFailed)
	}

	c.state = StateAuthenticating

	err := c.login(ctx, username, password)
	if err != nil {
		c.state = StateAnonymous
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return err
	}

	c.state = StateAuthenticated
	c.username = username
	c.password = password
	return nil
}

func (c *Client) login(ctx context.Context, username, password string) error {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("GET %s: %s", loginPath, res.Status())
	}
	doc, err := parseDoc(res)
	if err != nil {
		return err
	}

	form := map[string]string{
		"username": username,
		"password": password,
		"option":   "com_users",
		"task":     "user.login",
		"return":   "",
	}
	if token := findRequestToken(doc); token != "" {
		form[token] = "1"
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(loginPath + "?task=user.login")
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("POST %s: %s", loginPath, res.Status())
	}
	doc, err = parseDoc(res)
	if err != nil {
		return err
	}

	return classifyLogin(doc, finalURL(res))
}

// classifyLogin decides whether a login response means success. The
// portal renders no explicit outcome, so this is a heuristic: an error
// banner or a still-present login form means failure, an authenticated
// navigation link or a profile redirect means success, and a redirect
// with no signal either way is treated as success.
func classifyLogin(doc *goquery.Document, landed *url.URL) error {
	banner := doc.Find(".alert-error, .alert-danger").First()
	if banner.Length() > 0 {
		return fmt.Errorf("%w: %s", ErrLoginFailed, htmlutil.CleanText(banner))
	}

	hasLoansLink := doc.Find(`a[href="/user-loans"]`).Length() > 0
	onProfile := strings.Contains(landed.Path, "/profile")
	if hasLoansLink || onProfile {
		return nil
	}

	if doc.Find("form#login-form").Length() > 0 {
		msg := htmlutil.CleanText(doc.Find("#system-message-container"))
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrLoginFailed, msg)
		}
		return fmt.Errorf("%w: credentials may be incorrect", ErrLoginFailed)
	}

	return nil
}

func (c *Client) ensureAuthenticated() error {
	switch c.state {
	case StateAuthenticated:
		return nil
	case StateExpired:
		return ErrSessionExpired
	default:
		return ErrNotAuthenticated
	}
}

// checkSessionExpired detects the portal silently bouncing an
// authenticated request back to the login surface. Without this an
// expired session would parse the login page and return an empty,
// meaningless record set.
func (c *Client) checkSessionExpired(res *resty.Response) error {
	landed := finalURL(res)
	if strings.Contains(landed.Path, loginPath) && !strings.Contains(landed.Path, "profile") {
		c.state = StateExpired
		return ErrSessionExpired
	}
	return nil
}

// DownloadHTML fetches a raw page over the authenticated session. The
// path may be absolute or relative to the portal.
func (c *Client) DownloadHTML(ctx context.Context, path string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:DownloadHTML")
	defer span.End()

	if err := c.ensureAuthenticated(); err != nil {
		return "", err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("GET %s: %s", path, res.Status())
	}
	if err := c.checkSessionExpired(res); err != nil {
		span.SetStatus(codes.Error, "session expired")
		return "", err
	}

	return string(res.Body()), nil
}
