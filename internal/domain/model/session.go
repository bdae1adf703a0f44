package model

// Identity is what a session token resolves to. The nickname rides along so
// handlers never re-read the user store per request.
type Identity struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
}
