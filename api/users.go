package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// FullName is "First Last".
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type Support struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// UserPage is one page of the user listing.
type UserPage struct {
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	Total      int      `json:"total"`
	TotalPages int      `json:"total_pages"`
	Data       []User   `json:"data"`
	Support    *Support `json:"support,omitempty"`
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Job      string `json:"job"`
	Location string `json:"location,omitempty"`
	Hobby    string `json:"hobby,omitempty"`
}

type CreatedUser struct {
	Name      string `json:"name"`
	Job       string `json:"job"`
	ID        string `json:"id"`
	Location  string `json:"location"`
	Hobby     string `json:"hobby"`
	CreatedAt string `json:"createdAt"`
}

// UserClient covers the users resource.
type UserClient struct {
	client *Client
}

func NewUserClient(client *Client) *UserClient {
	return &UserClient{client: client}
}

// ListUsers fetches one page. perPage <= 0 leaves the page size to the server.
func (u *UserClient) ListUsers(ctx context.Context, page, perPage int) (*UserPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	resp, err := u.client.Get(ctx, "users?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newStatusError("get users", resp)
	}

	var result UserPage
	if err := resp.JSON(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUser fetches a single user and unwraps the data envelope.
func (u *UserClient) GetUser(ctx context.Context, id int) (*User, error) {
	resp, err := u.TryGetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newStatusError(fmt.Sprintf("get user %d", id), resp)
	}

	data := gjson.GetBytes(resp.Body, "data")
	if !data.Exists() || !data.IsObject() {
		return nil, fmt.Errorf("user %d data not found in response", id)
	}
	var user User
	if err := json.Unmarshal([]byte(data.Raw), &user); err != nil {
		return nil, fmt.Errorf("decoding user %d: %w", id, err)
	}
	return &user, nil
}

// TryGetUser returns the raw response so callers can assert on error statuses.
func (u *UserClient) TryGetUser(ctx context.Context, id int) (*Response, error) {
	return u.client.Get(ctx, "users/"+strconv.Itoa(id), nil)
}

func (u *UserClient) CreateUser(ctx context.Context, req CreateUserRequest) (*CreatedUser, error) {
	resp, err := u.client.Post(ctx, "users", req, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newStatusError("create user", resp)
	}

	var created CreatedUser
	if err := resp.JSON(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteUser returns the raw response; a successful delete answers 204.
func (u *UserClient) DeleteUser(ctx context.Context, id string) (*Response, error) {
	return u.client.Delete(ctx, "users/"+url.PathEscape(id), nil)
}

// AllUsers walks the listing from page 1 until the reported total pages are exhausted.
// It issues exactly max(1, total_pages) requests.
func (u *UserClient) AllUsers(ctx context.Context, perPage int) ([]User, error) {
	var users []User
	for page := 1; ; page++ {
		result, err := u.ListUsers(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		users = append(users, result.Data...)
		if page >= result.TotalPages {
			return users, nil
		}
	}
}

// UniqueName returns base, or base followed by the smallest positive number, that is not in taken.
func UniqueName(base string, taken map[string]bool) string {
	name := base
	for i := 1; taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}
