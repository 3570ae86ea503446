package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Generate asks the backend to create an article record and enqueue a
// generation job for it in one call.
//
// If an equivalent generation already exists and req.Force is false, the
// error is a *ConflictError carrying the existing job's snapshot. With
// req.Force set the backend always creates a fresh article/job pair.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/articles/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetArticle fetches an article's metadata by id.
func (c *Client) GetArticle(ctx context.Context, articleID string) (*Article, error) {
	var article Article
	path := fmt.Sprintf("/api/v1/articles/%s", url.PathEscape(articleID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// GetArticleContent fetches an article's generated text as a raw body.
func (c *Client) GetArticleContent(ctx context.Context, articleID string) (string, error) {
	path := fmt.Sprintf("/api/v1/articles/%s/content", url.PathEscape(articleID))
	return c.doText(ctx, path)
}

// ListArticlesOptions filters the article listing.
type ListArticlesOptions struct {
	Language string
	Level    string
	Status   string
	Limit    int
}

// ListArticles fetches the caller's articles, newest first.
func (c *Client) ListArticles(ctx context.Context, opts ListArticlesOptions) ([]Article, error) {
	query := url.Values{}
	if opts.Language != "" {
		query.Set("language", opts.Language)
	}
	if opts.Level != "" {
		query.Set("level", opts.Level)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	path := "/api/v1/articles"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var articles []Article
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}
