package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// GuardMode selects how MenuGuard.Roles is applied.
type GuardMode string

const (
	// GuardModeInclude shows the menu to the listed roles only (everyone when the list is empty).
	GuardModeInclude GuardMode = "include"
	// GuardModeExcept hides the menu from the listed roles.
	GuardModeExcept GuardMode = "except"
)

// MenuGuard is the role guard stored in the menu "guard" column.
//
// Two encodings are accepted: an object {"mode": "include|except", "role": [...]}
// and a plain role list ["a", "b"]. A plain list is written back as a list.
type MenuGuard struct {
	Mode  GuardMode
	Roles []string
	// List is true when the guard was given as a plain role list.
	List bool
	// Valid is false when the menu has no guard at all (SQL NULL / JSON null).
	Valid bool
}

type menuGuardObject struct {
	Mode GuardMode       `json:"mode"`
	Role json.RawMessage `json:"role"`
}

// NewMenuGuard builds an object style guard.
func NewMenuGuard(mode GuardMode, roles ...string) MenuGuard {
	if mode == "" {
		mode = GuardModeInclude
	}

	return MenuGuard{Mode: mode, Roles: roles, Valid: true}
}

// MarshalJSON implements json.Marshaler.
func (g MenuGuard) MarshalJSON() ([]byte, error) {
	if !g.Valid {
		return []byte("null"), nil
	}

	roles := g.Roles
	if roles == nil {
		roles = []string{}
	}

	if g.List {
		return json.Marshal(roles)
	}

	return json.Marshal(struct {
		Mode GuardMode `json:"mode"`
		Role []string  `json:"role"`
	}{Mode: g.Mode, Role: roles})
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *MenuGuard) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*g = MenuGuard{}
		return nil
	}

	if data[0] == '[' {
		var roles []string
		if err := json.Unmarshal(data, &roles); err != nil {
			return fmt.Errorf("invalid menu guard list: %w", err)
		}

		*g = MenuGuard{Mode: GuardModeInclude, Roles: roles, List: true, Valid: true}

		return nil
	}

	var obj menuGuardObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid menu guard: %w", err)
	}

	roles, err := decodeGuardRoles(obj.Role)
	if err != nil {
		return err
	}

	*g = NewMenuGuard(obj.Mode, roles...)

	return nil
}

// decodeGuardRoles accepts a single role name or a list of names.
func decodeGuardRoles(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var role string
		if err := json.Unmarshal(raw, &role); err != nil {
			return nil, fmt.Errorf("invalid menu guard role: %w", err)
		}

		return []string{role}, nil
	}

	var roles []string
	if err := json.Unmarshal(raw, &roles); err != nil {
		return nil, fmt.Errorf("invalid menu guard role list: %w", err)
	}

	return roles, nil
}

// Value implements driver.Valuer.
func (g MenuGuard) Value() (driver.Value, error) {
	if !g.Valid {
		return nil, nil
	}

	out, err := g.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return string(out), nil
}

// Scan implements sql.Scanner.
func (g *MenuGuard) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*g = MenuGuard{}
		return nil
	case []byte:
		return g.UnmarshalJSON(v)
	case string:
		return g.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported menu guard type %T", src)
	}
}

// GormDataType implements schema.GormDataTypeInterface.
func (MenuGuard) GormDataType() string {
	return "json"
}
