package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clearcrowds/reddit-outreach/internal/config"
	"github.com/clearcrowds/reddit-outreach/internal/model"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIBase  = "https://oauth.reddit.com"
)

// Client holds the endpoints shared by every session. TokenURL and APIBase
// are fields so tests can point them at a local server.
type Client struct {
	TokenURL string
	APIBase  string
	HTTP     *http.Client
}

func NewClient() *Client {
	return &Client{
		TokenURL: defaultTokenURL,
		APIBase:  defaultAPIBase,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Session is an authenticated reddit account.
type Session struct {
	client    *Client
	token     string
	username  string
	userAgent string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

// Authenticate performs the OAuth2 password grant for one account.
func (c *Client) Authenticate(ctx context.Context, creds config.Credentials) (*Session, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", creds.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("token request: unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("token request: failed to decode json: %w", err)
	}
	if tr.Error != "" {
		return nil, fmt.Errorf("token request: %s (account %s)", tr.Error, creds.Username)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token request: missing access_token (account %s)", creds.Username)
	}

	return &Session{
		client:    c,
		token:     tr.AccessToken,
		username:  creds.Username,
		userAgent: creds.UserAgent,
	}, nil
}

func (s *Session) Username() string {
	return s.username
}

// listing is the reddit search envelope; only the fields this program
// consumes are decoded.
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID            string  `json:"id"`
				Subreddit     string  `json:"subreddit"`
				Title         string  `json:"title"`
				Selftext      string  `json:"selftext"`
				Permalink     string  `json:"permalink"`
				Author        string  `json:"author"`
				CreatedUTC    float64 `json:"created_utc"`
				LinkFlairText string  `json:"link_flair_text"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search runs a subreddit-restricted search and returns the posts in the
// platform's own ordering. Results beyond limit are dropped.
func (s *Session) Search(ctx context.Context, query, subreddits, timeFilter string, limit int) ([]model.Post, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("restrict_sr", "1")
	q.Set("sort", "new")
	q.Set("t", timeFilter)
	q.Set("limit", strconv.Itoa(limit))

	u := fmt.Sprintf("%s/r/%s/search?%s", s.client.APIBase, subreddits, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	s.setAuth(req)

	resp, err := s.client.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search: unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("search: failed to decode json: %w", err)
	}

	posts := make([]model.Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if len(posts) >= limit {
			break
		}
		d := child.Data
		posts = append(posts, model.Post{
			ID:        d.ID,
			Subreddit: d.Subreddit,
			Title:     d.Title,
			Body:      d.Selftext,
			Permalink: d.Permalink,
			Author:    d.Author,
			Flair:     d.LinkFlairText,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
		})
	}
	return posts, nil
}

type replyResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}

// Reply posts a comment on the given submission. Reddit reports API-level
// failures inside a 200 body, so the json.errors array is checked too.
func (s *Session) Reply(ctx context.Context, postID, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", "t3_"+postID)
	form.Set("text", text)

	u := s.client.APIBase + "/api/comment"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	s.setAuth(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reply: unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}

	var rr replyResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return fmt.Errorf("reply: failed to decode json: %w body=%q", err, string(body))
	}
	if len(rr.JSON.Errors) > 0 {
		return fmt.Errorf("reply: api error: %v", rr.JSON.Errors[0])
	}
	return nil
}

func (s *Session) setAuth(req *http.Request) {
	req.Header.Set("Authorization", "bearer "+s.token)
	req.Header.Set("User-Agent", s.userAgent)
}

// TimeFilterForDays maps a day count onto the nearest reddit time filter.
func TimeFilterForDays(days int) string {
	switch {
	case days <= 1:
		return "day"
	case days <= 7:
		return "week"
	case days <= 30:
		return "month"
	case days <= 365:
		return "year"
	default:
		return "all"
	}
}
