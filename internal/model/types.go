package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/vidmill/videos-ms-go/internal/db"
)

// Sensitivity is the safety verdict produced at the end of processing.
// IsSafe stays nil until the analysis has run.
type Sensitivity struct {
	IsSafe *bool    `json:"is_safe"`
	Flags  []string `json:"flags"`
}

// Analysed reports whether a verdict has been recorded.
func (s Sensitivity) Analysed() bool {
	return s.IsSafe != nil
}

func (s Sensitivity) Value() (driver.Value, error) {
	if !s.Analysed() {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal Sensitivity: %w", err)
	}
	return b, nil
}

func (s *Sensitivity) Scan(src interface{}) error {
	if src == nil {
		*s = Sensitivity{}
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("Sensitivity.Scan: expected []byte, got %T", src)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal Sensitivity: %w", err)
	}
	return nil
}

type Role string

const (
	RoleReader Role = "reader"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Caller is the authenticated identity attached to a request by the
// identity provider. The subject ID and role come straight from the token.
type Caller struct {
	ID   db.UUID
	Role Role
}

// CanUpload reports whether the caller may ingest new videos.
func (c Caller) CanUpload() bool {
	return c.Role == RoleEditor || c.Role == RoleAdmin
}
