package http

type registerRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	Name         string `json:"name"`
	Subscription string `json:"subscription" binding:"omitempty,oneof=starter pro business"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email" binding:"omitempty,email"`
	Subscription *string `json:"subscription" binding:"omitempty,oneof=starter pro business"`
	Password     *string `json:"password" binding:"omitempty,min=1"`
}
