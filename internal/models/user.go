package models

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RolePatient  = "patient"
)

// Principal - identitas yang sudah diverifikasi oleh layer auth (JWT)
type Principal struct {
	UserID     int64  `json:"user_id"`
	Nama       string `json:"nama"`
	Role       string `json:"role"`
	ProviderID *int64 `json:"provider_id,omitempty"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanOperate - admin boleh semua provider, operator hanya provider miliknya
func (p Principal) CanOperate(providerID int64) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleOperator && p.ProviderID != nil && *p.ProviderID == providerID
}
