package models

type User struct {
	ID         string `json:"id" toml:"id"`
	Username   string `json:"username" toml:"username"`
	Name       string `json:"name" toml:"name"`
	Email      string `json:"email" toml:"email"`
	Avatar     string `json:"avatar,omitempty" toml:"avatar,omitempty"`
	JoinedDate string `json:"joinedDate" toml:"joined_date"`
}

// ProfilePatch updates the mutable parts of a profile.
type ProfilePatch struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}
