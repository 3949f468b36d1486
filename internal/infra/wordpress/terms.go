package wordpress

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Term is a category or tag.
type Term struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// ListCategories returns the site's categories, first page of up to 100.
func (c *Client) ListCategories(ctx context.Context) ([]Term, error) {
	return c.listTerms(ctx, "list categories", "/wp-json/wp/v2/categories")
}

// ListTags returns the site's tags, first page of up to 100.
func (c *Client) ListTags(ctx context.Context) ([]Term, error) {
	return c.listTerms(ctx, "list tags", "/wp-json/wp/v2/tags")
}

func (c *Client) listTerms(ctx context.Context, op, path string) ([]Term, error) {
	result, err := c.execute(ctx, op, func() (interface{}, error) {
		query := url.Values{}
		query.Set("per_page", "100")
		query.Set("_fields", "id,name,slug,count")

		resp, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, err
		}

		var terms []Term
		if err := decode(op, resp, &terms); err != nil {
			return nil, err
		}
		return terms, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Term), nil
}

// MatchTermIDs maps human names onto term IDs, matching the term name or
// slug case-insensitively. Names with no matching term are skipped; creating
// missing terms is the operator's call, not the pipeline's.
func MatchTermIDs(terms []Term, names []string) []int {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		needle := strings.ToLower(strings.TrimSpace(name))
		if needle == "" {
			continue
		}
		for _, term := range terms {
			if strings.ToLower(term.Name) == needle || strings.EqualFold(term.Slug, needle) {
				ids = append(ids, term.ID)
				break
			}
		}
	}
	return ids
}
