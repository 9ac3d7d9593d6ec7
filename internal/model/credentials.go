package model

// AdminCredentials is the single admin account of the catalog.
type AdminCredentials struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
}
