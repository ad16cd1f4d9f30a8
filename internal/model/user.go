package model

// UserInfo is the profile returned by GET auth/user.
type UserInfo struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Username      string `json:"username" yaml:"username"`
	Avatar        string `json:"avatar" yaml:"avatar"`
	Status        int    `json:"status" yaml:"status"`
	LastLoginIP   string `json:"last_login_ip" yaml:"last_login_ip"`
	LastLoginTime int64  `json:"last_login_time" yaml:"last_login_time"`
	RoleID        string `json:"role_id" yaml:"role_id"`
}

// Credentials is the login payload kept by the session.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"token,omitempty"`
}

// Empty reports whether no login has been recorded.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == "" && c.Token == ""
}

// LoginRequest is the body of POST auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of POST auth/login and GET auth/refresh.
type LoginResponse struct {
	Token string `json:"token"`
}
