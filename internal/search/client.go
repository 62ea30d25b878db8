// Package search pushes recipe documents into an Upstash Search index. All
// operations are best-effort: the job pipeline never fails because the index
// was unreachable.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"recipehub/internal/adapter/repo"
)

// Client talks to the Upstash Search REST API.
type Client struct {
	baseURL string
	token   string
	index   string
	client  *http.Client
	logger  zerolog.Logger
}

// Options configures the search client. When Enabled is false, or URL/Token
// are empty, New returns nil and every call on the nil client is a no-op.
type Options struct {
	Enabled bool
	URL     string
	Token   string
	Index   string
}

func New(opts Options, logger zerolog.Logger) *Client {
	if !opts.Enabled || opts.URL == "" || opts.Token == "" {
		return nil
	}
	return &Client{
		baseURL: strings.TrimRight(opts.URL, "/"),
		token:   opts.Token,
		index:   opts.Index,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type document struct {
	ID      string         `json:"id"`
	Content map[string]any `json:"content"`
}

// UpsertRecipe indexes one recipe document. Errors are logged and swallowed.
func (c *Client) UpsertRecipe(ctx context.Context, doc *repo.RecipeSearchDoc) {
	if c == nil {
		return
	}
	content := map[string]any{
		"title":            doc.Title,
		"slug":             doc.Slug,
		"description":      doc.Description,
		"meta_title":       doc.MetaTitle,
		"meta_description": doc.MetaDescription,
		"difficulty":       doc.Difficulty,
		"ingredients":      strings.Join(doc.Ingredients, "\n"),
	}
	if doc.PublishedAt != nil {
		content["published_at"] = doc.PublishedAt.UTC().Format(time.RFC3339)
	}
	payload := []document{{ID: recipeDocID(doc.RecipeID), Content: content}}
	if err := c.post(ctx, "/upsert/"+c.index, payload); err != nil {
		c.logger.Warn().Err(err).Int64("recipe_id", doc.RecipeID).Msg("search upsert failed")
	}
}

// DeleteRecipe removes one recipe document. Errors are logged and swallowed.
func (c *Client) DeleteRecipe(ctx context.Context, recipeID int64) {
	if c == nil {
		return
	}
	payload := map[string]any{"ids": []string{recipeDocID(recipeID)}}
	if err := c.post(ctx, "/delete/"+c.index, payload); err != nil {
		c.logger.Warn().Err(err).Int64("recipe_id", recipeID).Msg("search delete failed")
	}
}

func recipeDocID(recipeID int64) string {
	return "recipe:" + strconv.FormatInt(recipeID, 10)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("search request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("search: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
