package packets

// body for logging in as the admin
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}
