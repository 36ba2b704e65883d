package gbp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://mybusiness.googleapis.com/v4"
	reviewsPageSize = 50
	mediaPageSize   = 100
	postsPageSize   = 100
)

// Client fetches reviews, media items and local posts for one
// (account, location) pair from the GBP v4 endpoints, following pageToken
// pagination until exhaustion. Every page request runs under its own
// deadline; a failed page aborts that shop's fetch with a *FetchError.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// ClientOption configures optional client behaviour.
type ClientOption func(*Client)

// WithBaseURL overrides the GBP API base URL, used by tests.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a GBP API client with the given per-page timeout.
func NewClient(timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReviewData is one decoded Google review.
type ReviewData struct {
	GBPReviewID string
	AuthorName  string
	Rating      int
	Comment     string
	ReplyText   *string
	RepliedAt   *time.Time
	CreatedAt   time.Time
}

// MediaData is one decoded Google media item.
type MediaData struct {
	GBPMediaID   string
	URL          string
	ThumbnailURL string
	WidthPx      int
	HeightPx     int
	CreatedAt    time.Time
}

// LocalPostData is one decoded GBP local post.
type LocalPostData struct {
	GBPPostID string
	Summary   string
	State     string
	CreatedAt time.Time
}

type reviewsPage struct {
	Reviews       []reviewItem `json:"reviews"`
	NextPageToken string       `json:"nextPageToken"`
}

type reviewItem struct {
	ReviewID string `json:"reviewId"`
	Reviewer struct {
		DisplayName string `json:"displayName"`
	} `json:"reviewer"`
	StarRating  string       `json:"starRating"`
	Comment     string       `json:"comment"`
	CreateTime  time.Time    `json:"createTime"`
	ReviewReply *reviewReply `json:"reviewReply,omitempty"`
}

type reviewReply struct {
	Comment    string    `json:"comment"`
	UpdateTime time.Time `json:"updateTime"`
}

type mediaPage struct {
	MediaItems    []mediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken"`
}

type mediaItem struct {
	Name         string    `json:"name"`
	GoogleURL    string    `json:"googleUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	CreateTime   time.Time `json:"createTime"`
	Dimensions   struct {
		WidthPixels  int `json:"widthPixels"`
		HeightPixels int `json:"heightPixels"`
	} `json:"dimensions"`
}

type postsPage struct {
	LocalPosts    []localPostItem `json:"localPosts"`
	NextPageToken string          `json:"nextPageToken"`
}

type localPostItem struct {
	Name       string    `json:"name"`
	Summary    string    `json:"summary"`
	State      string    `json:"state"`
	CreateTime time.Time `json:"createTime"`
}

// ListReviews fetches every review for the location.
func (c *Client) ListReviews(ctx context.Context, token, accountID, locationID string) ([]ReviewData, error) {
	endpoint := c.locationPath(accountID, locationID, "reviews")

	var reviews []ReviewData
	pageToken := ""
	for {
		var page reviewsPage
		if err := c.getPage(ctx, token, endpoint, pageToken, reviewsPageSize, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Reviews {
			rating, err := starRatingValue(item.StarRating)
			if err != nil {
				return nil, fmt.Errorf("review %s: %w", item.ReviewID, err)
			}
			review := ReviewData{
				GBPReviewID: item.ReviewID,
				AuthorName:  item.Reviewer.DisplayName,
				Rating:      rating,
				Comment:     item.Comment,
				CreatedAt:   item.CreateTime,
			}
			if item.ReviewReply != nil {
				reply := item.ReviewReply.Comment
				repliedAt := item.ReviewReply.UpdateTime
				review.ReplyText = &reply
				review.RepliedAt = &repliedAt
			}
			reviews = append(reviews, review)
		}
		if page.NextPageToken == "" {
			return reviews, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListMedia fetches every media item for the location.
func (c *Client) ListMedia(ctx context.Context, token, accountID, locationID string) ([]MediaData, error) {
	endpoint := c.locationPath(accountID, locationID, "media")

	var media []MediaData
	pageToken := ""
	for {
		var page mediaPage
		if err := c.getPage(ctx, token, endpoint, pageToken, mediaPageSize, &page); err != nil {
			return nil, err
		}
		for _, item := range page.MediaItems {
			media = append(media, MediaData{
				GBPMediaID:   item.Name,
				URL:          item.GoogleURL,
				ThumbnailURL: item.ThumbnailURL,
				WidthPx:      item.Dimensions.WidthPixels,
				HeightPx:     item.Dimensions.HeightPixels,
				CreatedAt:    item.CreateTime,
			})
		}
		if page.NextPageToken == "" {
			return media, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListLocalPosts fetches every local post for the location.
func (c *Client) ListLocalPosts(ctx context.Context, token, accountID, locationID string) ([]LocalPostData, error) {
	endpoint := c.locationPath(accountID, locationID, "localPosts")

	var posts []LocalPostData
	pageToken := ""
	for {
		var page postsPage
		if err := c.getPage(ctx, token, endpoint, pageToken, postsPageSize, &page); err != nil {
			return nil, err
		}
		for _, item := range page.LocalPosts {
			posts = append(posts, LocalPostData{
				GBPPostID: item.Name,
				Summary:   item.Summary,
				State:     item.State,
				CreatedAt: item.CreateTime,
			})
		}
		if page.NextPageToken == "" {
			return posts, nil
		}
		pageToken = page.NextPageToken
	}
}

// locationPath joins account and location into a resource path. Location
// ids are stored either bare or as "locations/<id>".
func (c *Client) locationPath(accountID, locationID, resource string) string {
	if !strings.HasPrefix(locationID, "locations/") {
		locationID = "locations/" + locationID
	}
	return fmt.Sprintf("%s/accounts/%s/%s/%s", c.baseURL, accountID, locationID, resource)
}

func (c *Client) getPage(ctx context.Context, token, endpoint, pageToken string, pageSize int, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("pageSize", fmt.Sprintf("%d", pageSize))
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create gbp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gbp request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gbp response from %s: %w", endpoint, err)
	}
	return nil
}

// starRatingValue maps Google's textual star enum to 1-5. Unknown values
// are an error so bad data never skews the stored averages.
func starRatingValue(value string) (int, error) {
	switch value {
	case "ONE":
		return 1, nil
	case "TWO":
		return 2, nil
	case "THREE":
		return 3, nil
	case "FOUR":
		return 4, nil
	case "FIVE":
		return 5, nil
	default:
		return 0, fmt.Errorf("unrecognized star rating %q", value)
	}
}
