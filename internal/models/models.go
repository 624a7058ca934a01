package models

// SessionUser is the profile subset kept in the auth session.
type SessionUser struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar *Media `json:"avatar,omitempty"`
	Banner *Media `json:"banner,omitempty"`
	Bio    string `json:"bio,omitempty"`
}

// Session is the persisted auth state. The zero value is the logged-out session.
type Session struct {
	User           *SessionUser `json:"user"`
	Token          string       `json:"token"`
	IsLoggedIn     bool         `json:"isLoggedIn"`
	IsVenueManager bool         `json:"isVenueManager"`
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (s Session) Clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		if s.User.Avatar != nil {
			a := *s.User.Avatar
			u.Avatar = &a
		}
		if s.User.Banner != nil {
			b := *s.User.Banner
			u.Banner = &b
		}
		out.User = &u
	}
	return out
}

// Meta is the pagination block of list responses.
type Meta struct {
	IsFirstPage  bool `json:"isFirstPage"`
	IsLastPage   bool `json:"isLastPage"`
	CurrentPage  int  `json:"currentPage"`
	PreviousPage *int `json:"previousPage"`
	NextPage     *int `json:"nextPage"`
	PageCount    int  `json:"pageCount"`
	TotalCount   int  `json:"totalCount"`
}

// VenuePage is one page of venue list or search results.
type VenuePage struct {
	Venues []Venue `json:"venues"`
	Meta   Meta    `json:"meta"`
}
