package api

import (
	"context"
	"net/http"
	"net/url"

	"holidaze/internal/models"
)

// Login authenticates and returns the profile with its access token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthProfile, error) {
	query := url.Values{}
	query.Set("_holidaze", "true")
	cl := call{
		op:     OpLogin,
		method: http.MethodPost,
		path:   models.LoginPath,
		query:  query,
		body:   models.LoginRequest{Email: email, Password: password},
	}

	var wrap struct {
		Data models.AuthProfile `json:"data"`
	}
	if err := c.do(ctx, cl, &wrap); err != nil {
		return nil, err
	}
	return &wrap.Data, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.Profile, error) {
	cl := call{op: OpRegister, method: http.MethodPost, path: models.RegisterPath, body: req}

	var wrap struct {
		Data models.Profile `json:"data"`
	}
	if err := c.do(ctx, cl, &wrap); err != nil {
		return nil, err
	}
	return &wrap.Data, nil
}

// UpdateProfile sends the changed profile fields and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, token, name string, update models.ProfileUpdate) (*models.Profile, error) {
	cl := call{op: OpUpdateProfile, method: http.MethodPut, path: profilePath(name), token: token, body: update}

	var wrap struct {
		Data models.Profile `json:"data"`
	}
	if err := c.do(ctx, cl, &wrap); err != nil {
		return nil, err
	}
	return &wrap.Data, nil
}
