package models

import (
	"encoding/json"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "user", want: RoleUser},
		{in: "admin", want: RoleAdmin},
		{in: "Admin", wantErr: true},
		{in: "", wantErr: true},
		{in: "root", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRole_ZeroValueIsInvalid(t *testing.T) {
	var r Role
	if r.Valid() {
		t.Error("zero Role should not be valid")
	}
	if _, err := r.MarshalText(); err == nil {
		t.Error("MarshalText() on zero Role should fail")
	}
}

func TestUser_JSONHidesPasswordHash(t *testing.T) {
	u := User{ID: 7, Email: "a@x.com", PasswordHash: "secret-digest", Role: RoleAdmin}

	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := out["PasswordHash"]; ok {
		t.Error("password hash leaked into JSON")
	}
	if out["role"] != "admin" {
		t.Errorf("role = %v, want admin", out["role"])
	}
}

func TestUser_IsAdmin(t *testing.T) {
	if (&User{Role: RoleUser}).IsAdmin() {
		t.Error("user role reported as admin")
	}
	if !(&User{Role: RoleAdmin}).IsAdmin() {
		t.Error("admin role not reported as admin")
	}
}

func TestPostPatch_Apply(t *testing.T) {
	title := "new title"
	published := false
	post := Post{Title: "old", Content: "body", Published: true}

	PostPatch{Title: &title, Published: &published}.Apply(&post)

	if post.Title != "new title" {
		t.Errorf("Title = %q", post.Title)
	}
	if post.Content != "body" {
		t.Errorf("Content changed to %q", post.Content)
	}
	if post.Published {
		t.Error("Published not applied")
	}
}
