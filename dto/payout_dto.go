package dto

type OnboardingLinkRequest struct {
	RefreshURL string `json:"refresh_url" binding:"required,url"`
	ReturnURL  string `json:"return_url" binding:"required,url"`
}
