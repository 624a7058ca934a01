package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"holidaze/internal/models"
)

// VenueQuery selects one page of the venue listing.
type VenueQuery struct {
	Page   int
	Limit  int
	Sort   string // one of the models.Sort* options
	Search string
}

// SortParams maps a listing sort option to the API's sort field and order.
// Unknown options fall back to newest first.
func SortParams(option string) (field, order string) {
	switch option {
	case models.SortNameAsc:
		return "name", "asc"
	case models.SortNameDesc:
		return "name", "desc"
	case models.SortPriceAsc:
		return "price", "asc"
	case models.SortPriceDesc:
		return "price", "desc"
	case models.SortStarsAsc:
		return "rating", "asc"
	case models.SortStarsDesc:
		return "rating", "desc"
	default:
		return "created", "desc"
	}
}

// Normalize applies listing defaults.
func (q VenueQuery) Normalize() VenueQuery {
	if q.Page < 1 {
		q.Page = models.DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = models.DefaultPageLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// IsSearch reports whether the query goes to the search endpoint.
func (q VenueQuery) IsSearch() bool {
	return strings.TrimSpace(q.Search) != ""
}

// Values builds the query string. Search requests carry no sort parameters.
func (q VenueQuery) Values() url.Values {
	q = q.Normalize()
	v := url.Values{}
	if q.IsSearch() {
		v.Set("q", q.Search)
	} else {
		field, order := SortParams(q.Sort)
		v.Set("sort", field)
		v.Set("sortOrder", order)
	}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	return v
}

// ListVenues returns one page of venues, using the search endpoint when the
// query has search text.
func (c *Client) ListVenues(ctx context.Context, q VenueQuery) (*models.VenuePage, error) {
	q = q.Normalize()
	cl := call{op: OpListVenues, method: http.MethodGet, path: models.VenuesPath, query: q.Values()}
	if q.IsSearch() {
		cl.op = OpSearchVenues
		cl.path = models.VenuesPath + "/search"
	}

	var wrap struct {
		Data []models.Venue `json:"data"`
		Meta models.Meta    `json:"meta"`
	}
	if err := c.getCached(ctx, cl, "venues:"+cl.query.Encode(), &wrap); err != nil {
		return nil, err
	}
	return &models.VenuePage{Venues: wrap.Data, Meta: wrap.Meta}, nil
}

// GetVenue fetches one venue with its bookings and owner.
func (c *Client) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	query := url.Values{}
	query.Set("_bookings", "true")
	query.Set("_owner", "true")
	cl := call{op: OpGetVenue, method: http.MethodGet, path: venuePath(id), query: query}

	var wrap struct {
		Data models.Venue `json:"data"`
	}
	if err := c.getCached(ctx, cl, "venue:"+id, &wrap); err != nil {
		return nil, err
	}
	return &wrap.Data, nil
}

// ManagerVenues lists the venues a manager owns, each with its bookings.
func (c *Client) ManagerVenues(ctx context.Context, token, profileName string) ([]models.Venue, error) {
	query := url.Values{}
	query.Set("_bookings", "true")
	cl := call{
		op:     OpManagerVenues,
		method: http.MethodGet,
		path:   profilePath(profileName) + "/venues",
		query:  query,
		token:  token,
	}

	var wrap struct {
		Data []models.Venue `json:"data"`
	}
	if err := c.do(ctx, cl, &wrap); err != nil {
		return nil, err
	}
	return wrap.Data, nil
}

func (c *Client) CreateVenue(ctx context.Context, token string, in models.VenueInput) (*models.Venue, error) {
	cl := call{op: OpCreateVenue, method: http.MethodPost, path: models.VenuesPath, token: token, body: in}

	var wrap struct {
		Data models.Venue `json:"data"`
	}
	if err := c.do(ctx, cl, &wrap); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "venues:")
	return &wrap.Data, nil
}

func (c *Client) UpdateVenue(ctx context.Context, token, id string, in models.VenueInput) (*models.Venue, error) {
	cl := call{op: OpUpdateVenue, method: http.MethodPut, path: venuePath(id), token: token, body: in}

	var wrap struct {
		Data models.Venue `json:"data"`
	}
	if err := c.do(ctx, cl, &wrap); err != nil {
		return nil, err
	}
	c.invalidate(ctx, "venues:", "venue:"+id)
	return &wrap.Data, nil
}

func (c *Client) DeleteVenue(ctx context.Context, token, id string) error {
	cl := call{op: OpDeleteVenue, method: http.MethodDelete, path: venuePath(id), token: token}
	if err := c.do(ctx, cl, nil); err != nil {
		return err
	}
	c.invalidate(ctx, "venues:", "venue:"+id)
	return nil
}

func venuePath(id string) string {
	return fmt.Sprintf("%s/%s", models.VenuesPath, url.PathEscape(id))
}

func profilePath(name string) string {
	return fmt.Sprintf("%s/%s", models.ProfilesPath, url.PathEscape(name))
}
