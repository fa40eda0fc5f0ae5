package domain

// SupabaseUser represents an authenticated user as reported by Supabase Auth.
type SupabaseUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	CreatedAt    string                 `json:"created_at"`
	UpdatedAt    string                 `json:"updated_at"`
}

// DisplayName picks the best available human-readable name for attribution
// on created annotations.
func (u *SupabaseUser) DisplayName() string {
	if u == nil {
		return ""
	}
	if name, ok := u.UserMetadata["full_name"].(string); ok && name != "" {
		return name
	}
	if name, ok := u.UserMetadata["name"].(string); ok && name != "" {
		return name
	}
	return u.Email
}
