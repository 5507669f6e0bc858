package domain

// PlayerSession binds one Player to an opaque session token and, once the
// video collaborator has provisioned it, a media token. Created exactly once
// per join and destroyed exactly once.
type PlayerSession struct {
	Token      SessionToken `json:"sessionToken"`
	Player     *Player      `json:"player"`
	VideoToken string       `json:"videoToken,omitempty"`
}
