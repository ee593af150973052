package schemas

// UserSchema is the identity record for an account
type UserSchema struct {
	UserID      string
	Username    string
	DisplayName string
	IsOnline    bool
	LastSeen    int64
	Created     int64
}

// RegisterRequest struct
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=50"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest struct
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokensSchema holds the session tokens returned on login/refresh
type TokensSchema struct {
	AccessToken  string
	RefreshToken RefreshTokenSchema
}

// RefreshTokenSchema struct
type RefreshTokenSchema struct {
	Token    string
	ExpireAt int64
}
