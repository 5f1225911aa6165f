package domain

// Identity is an authenticated principal as issued by the identity provider.
// Optional attributes are empty when the provider did not supply them.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// HasEmail reports whether the provider supplied an email address.
func (i Identity) HasEmail() bool {
	return i.Email != ""
}

// Credentials carries whatever a sign-in method needs. Password sign-in
// uses Email and Password, the OIDC code flow uses Code.
type Credentials struct {
	Method   string
	Email    string
	Password string
	Code     string
}

const (
	MethodPassword = "password"
	MethodOIDC     = "oidc"
)
