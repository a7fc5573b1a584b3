package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clinic-console/internal/model"
	"clinic-console/internal/session"
	"clinic-console/internal/store"
	"clinic-console/internal/transport"
)

type call struct {
	method, path, query string
	body                map[string]any
}

func newClient(t *testing.T, reply any) (*Client, *[]call) {
	t.Helper()
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, path: r.URL.EscapedPath(), query: r.URL.RawQuery}
		json.NewDecoder(r.Body).Decode(&c.body)
		calls = append(calls, c)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)

	sess := session.New(store.NewMemory(""), zerolog.Nop())
	tc, err := transport.New(transport.Options{BaseURL: srv.URL, Timeout: time.Second}, sess, zerolog.Nop())
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	return New(tc), &calls
}

func TestAuthResponseShapes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		token string
		user  model.ID
		roles []model.Role
	}{
		{
			name:  "nested user",
			body:  `{"token":"t1","user":{"userId":3,"username":"doc","roles":["DOCTOR"]}}`,
			token: "t1", user: "3", roles: []model.Role{model.RoleDoctor},
		},
		{
			name:  "flat body with single role",
			body:  `{"token":"t2","id":"u-9","username":"pat","role":"patient"}`,
			token: "t2", user: "u-9", roles: []model.Role{model.RolePatient},
		},
		{
			name:  "access token",
			body:  `{"accessToken":"t3","user":{"userId":"1","roles":[]}}`,
			token: "t3", user: "1", roles: []model.Role{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got AuthResponse
			if err := json.Unmarshal([]byte(tt.body), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Token != tt.token || got.User.UserID != tt.user {
				t.Fatalf("got token=%q user=%q", got.Token, got.User.UserID)
			}
			if len(got.User.Roles) != len(tt.roles) {
				t.Fatalf("roles = %v, want %v", got.User.Roles, tt.roles)
			}
			for i := range tt.roles {
				if got.User.Roles[i] != tt.roles[i] {
					t.Fatalf("roles = %v, want %v", got.User.Roles, tt.roles)
				}
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		invoke func(c *Client) error
		method string
		path   string
		query  string
		reply  any
	}{
		{"me", func(c *Client) error { _, err := c.Auth.Me(ctx); return err }, "GET", "/auth/me", "", nil},
		{"logout", func(c *Client) error { return c.Auth.Logout(ctx) }, "POST", "/auth/logout", "", nil},
		{"user update", func(c *Client) error {
			_, err := c.Users.Update(ctx, "5", model.UserUpdate{Phone: "1"})
			return err
		}, "PUT", "/users/5", "", nil},
		{"user delete", func(c *Client) error { return c.Users.Delete(ctx, "5") }, "DELETE", "/users/5", "", nil},
		{"by doctor", func(c *Client) error { _, err := c.Appointments.ByDoctor(ctx, "2"); return err }, "GET", "/appointments/doctor/2", "", []any{}},
		{"by patient", func(c *Client) error { _, err := c.Appointments.ByPatient(ctx, "4"); return err }, "GET", "/appointments/patient/4", "", []any{}},
		{"cancel", func(c *Client) error { return c.Appointments.Cancel(ctx, "7") }, "PATCH", "/appointments/7/cancel", "", nil},
		{"status", func(c *Client) error {
			_, err := c.Appointments.SetStatus(ctx, "7", model.StatusCompleted)
			return err
		}, "PATCH", "/appointments/7/status", "", nil},
		{"slots", func(c *Client) error {
			_, err := c.Appointments.AvailableSlots(ctx, "2", "2026-10-15")
			return err
		}, "GET", "/appointments/available-slots", "date=2026-10-15&doctorId=2", []any{}},
		{"doctor", func(c *Client) error { _, err := c.Directory.Doctor(ctx, "2"); return err }, "GET", "/doctors/2", "", nil},
		{"patients", func(c *Client) error { _, err := c.Directory.Patients(ctx); return err }, "GET", "/patients", "", []any{}},
		{"medicine delete", func(c *Client) error { return c.Pharmacy.DeleteMedicine(ctx, "m 1") }, "DELETE", "/medicines/m%201", "", nil},
		{"prescription status", func(c *Client) error {
			_, err := c.Pharmacy.SetPrescriptionStatus(ctx, "3", model.PrescriptionDispensed)
			return err
		}, "PATCH", "/prescriptions/3/status", "", nil},
		{"stock", func(c *Client) error { _, err := c.Pharmacy.SetStock(ctx, "9", 40); return err }, "PATCH", "/inventory/9", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := tt.reply
			if reply == nil {
				reply = map[string]any{}
			}
			c, calls := newClient(t, reply)
			if err := tt.invoke(c); err != nil {
				t.Fatalf("call: %v", err)
			}
			if len(*calls) != 1 {
				t.Fatalf("calls = %d", len(*calls))
			}
			got := (*calls)[0]
			if got.method != tt.method || got.path != tt.path || got.query != tt.query {
				t.Fatalf("got %s %s?%s, want %s %s?%s", got.method, got.path, got.query, tt.method, tt.path, tt.query)
			}
		})
	}
}

func TestStatusBodies(t *testing.T) {
	c, calls := newClient(t, map[string]any{"medicineId": 9, "quantity": 40})
	item, err := c.Pharmacy.SetStock(context.Background(), "9", 40)
	if err != nil {
		t.Fatalf("set stock: %v", err)
	}
	if item.MedicineID != "9" || item.Quantity != 40 {
		t.Fatalf("item = %+v", item)
	}
	if q, _ := (*calls)[0].body["quantity"].(float64); q != 40 {
		t.Fatalf("body = %v", (*calls)[0].body)
	}
}
