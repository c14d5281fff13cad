package scada

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ChannelValue is one channel's current reading as reported by the
// portal. Val is null when the channel has no valid sample; the
// display text may still carry a formatted number.
type ChannelValue struct {
	CnlNum       int      `json:"CnlNum"`
	Val          *float64 `json:"Val"`
	TextWithUnit string   `json:"TextWithUnit"`
	Stat         int      `json:"Stat"`
}

// Client talks to a Rapid SCADA portal: ASP.NET forms login, then the
// Client API JSON endpoint for current channel data, with an HTML
// table view as fallback. The session cookie lives in the jar and is
// reused across calls until the portal expires it.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewClient builds a portal client. baseURL is the portal root
// without a trailing slash.
func NewClient(baseURL, username, password string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Login performs the ASP.NET forms handshake: fetch the login page,
// scrape __VIEWSTATE and __EVENTVALIDATION, post the credentials. The
// session cookie ends up in the jar.
func (c *Client) Login(ctx context.Context) error {
	loginURL := c.baseURL + "/Scada/Login.aspx"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return fmt.Errorf("parse login page: %w", err)
	}

	viewState, _ := doc.Find(`input[name="__VIEWSTATE"]`).Attr("value")
	eventValidation, _ := doc.Find(`input[name="__EVENTVALIDATION"]`).Attr("value")
	generator, _ := doc.Find(`input[name="__VIEWSTATEGENERATOR"]`).Attr("value")
	if viewState == "" {
		return fmt.Errorf("login page carries no viewstate, portal layout may have changed")
	}

	form := url.Values{
		"__VIEWSTATE":          {viewState},
		"__VIEWSTATEGENERATOR": {generator},
		"__EVENTVALIDATION":    {eventValidation},
		"txtUsername":          {c.username},
		"txtPassword":          {c.password},
		"btnLogin":             {"Login"},
	}

	postReq, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	postReq.Header.Set("Referer", loginURL)

	postRes, err := c.http.Do(postReq)
	if err != nil {
		return fmt.Errorf("post login form: %w", err)
	}
	defer postRes.Body.Close()

	if postRes.StatusCode >= 400 {
		return fmt.Errorf("login rejected with status %d", postRes.StatusCode)
	}
	return nil
}

type apiEnvelope struct {
	D string `json:"d"`
}

type apiResult struct {
	Success      bool
	ErrorMessage string
	Data         []ChannelValue
}

// FetchCurrent returns the current value of every mapped channel. The
// JSON Client API is tried first; on failure the HTML table view is
// scraped instead, so one broken surface does not blind the crawl.
func (c *Client) FetchCurrent(ctx context.Context) ([]ChannelValue, error) {
	values, err := c.fetchFromAPI(ctx)
	if err == nil {
		return values, nil
	}
	log.Printf("[SCADA] channel API failed, falling back to table scrape: %v", err)

	values, tableErr := c.fetchFromTable(ctx)
	if tableErr != nil {
		return nil, fmt.Errorf("channel api: %v; table scrape: %w", err, tableErr)
	}
	return values, nil
}

func (c *Client) fetchFromAPI(ctx context.Context) ([]ChannelValue, error) {
	nums, err := json.Marshal(ChannelNumbers())
	if err != nil {
		return nil, err
	}

	q := url.Values{
		"cnlNums": {string(nums)},
		"viewIDs": {"[]"},
		"_":       {fmt.Sprint(time.Now().UnixMilli())},
	}
	apiURL := c.baseURL + "/Scada/ClientApiSvc.svc/GetCurCnlDataExt?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL+"/Scada/View.aspx")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch channel data: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("channel api status %d", res.StatusCode)
	}

	// The WCF service wraps its JSON payload in a {"d": "..."} string.
	var env apiEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode api envelope: %w", err)
	}

	var result apiResult
	if err := json.Unmarshal([]byte(env.D), &result); err != nil {
		return nil, fmt.Errorf("decode api payload: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("channel api error: %s", result.ErrorMessage)
	}
	return result.Data, nil
}

func (c *Client) fetchFromTable(ctx context.Context) ([]ChannelValue, error) {
	tableURL := c.baseURL + "/Scada/Table.aspx"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tableURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch table view: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("table view status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse table view: %w", err)
	}
	return parseChannelTable(doc), nil
}
