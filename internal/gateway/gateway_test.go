// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/freshmart/adminctl/internal/model"
)

func staticToken(token string) CredentialProvider {
	return func() (string, bool) { return token, token != "" }
}

func TestLogin(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":   "tok-123",
			"expired": time.Now().Add(time.Hour).UnixMilli(),
		})
	}))
	defer srv.Close()

	g := New(srv.URL, "freshmart", staticToken("stale"), nil)
	sess, err := g.Login(context.Background(), "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if gotPath != "/admin/signin" {
		t.Errorf("path = %q, want /admin/signin", gotPath)
	}
	if gotAuth != "" {
		t.Errorf("sign-in must not carry Authorization, got %q", gotAuth)
	}
	if gotBody["username"] != "admin@example.com" || gotBody["password"] != "secret" {
		t.Errorf("unexpected request body: %v", gotBody)
	}
	if sess.Token != "tok-123" {
		t.Errorf("token = %q, want tok-123", sess.Token)
	}
	if !sess.Valid() {
		t.Error("session should be valid")
	}
}

func TestLoginRejected(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name:     "message in body",
			status:   http.StatusUnauthorized,
			body:     `{"message":"invalid credentials"}`,
			wantKind: KindUnauthorized,
			wantMsg:  "invalid credentials",
		},
		{
			name:     "empty body",
			status:   http.StatusBadRequest,
			body:     ``,
			wantKind: KindUnauthorized,
			wantMsg:  "API error (status: 400)",
		},
		{
			name:     "backend down",
			status:   http.StatusInternalServerError,
			body:     `boom`,
			wantKind: KindServer,
			wantMsg:  "API error (status: 500)",
		},
		{
			name:     "gateway timeout",
			status:   http.StatusBadGateway,
			body:     `{"message":"upstream unavailable"}`,
			wantKind: KindServer,
			wantMsg:  "upstream unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := New(srv.URL, "freshmart", nil, nil)
			_, err := g.Login(context.Background(), "admin", "wrong")
			if err == nil {
				t.Fatal("Login() expected error")
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", apiErr.Kind, tt.wantKind)
			}
			if got := UserMessage(err); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestNoResponseIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connections now refused

	g := New(srv.URL, "freshmart", staticToken("tok"), nil)
	_, err := g.Login(context.Background(), "admin", "secret")
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	if got := UserMessage(err); got != "network error or no response from server" {
		t.Errorf("message = %q", got)
	}

	if err := g.Verify(context.Background()); !IsNetwork(err) {
		t.Errorf("Verify: expected network error, got %v", err)
	}
	if _, err := g.FetchProducts(context.Background()); !IsNetwork(err) {
		t.Errorf("FetchProducts: expected network error, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	var gotAuth, gotPath string
	status := http.StatusOK

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": status == http.StatusOK})
	}))
	defer srv.Close()

	g := New(srv.URL, "freshmart", staticToken("tok-abc"), nil)
	if err := g.Verify(context.Background()); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if gotPath != "/api/user/check" {
		t.Errorf("path = %q, want /api/user/check", gotPath)
	}
	// The API wants the bare token, no "Bearer" prefix.
	if gotAuth != "tok-abc" {
		t.Errorf("Authorization = %q, want tok-abc", gotAuth)
	}

	status = http.StatusUnauthorized
	if err := g.Verify(context.Background()); !IsUnauthorized(err) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestFetchProductsPreservesOrder(t *testing.T) {
	// Keys deliberately not in lexicographic order; a map-based decode
	// would scramble them.
	body := `{"success":true,"products":{
		"p3":{"title":"Carrots","category":"vegetable"},
		"p1":{"id":"p1","title":"Beef","category":"meat"},
		"p9":null,
		"p2":{"title":"Apples","category":"fruit"}
	}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/freshmart/admin/products/all" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	g := New(srv.URL, "freshmart", staticToken("tok"), nil)
	products, err := g.FetchProducts(context.Background())
	if err != nil {
		t.Fatalf("FetchProducts() error = %v", err)
	}

	wantIDs := []string{"p3", "p1", "p2"}
	if len(products) != len(wantIDs) {
		t.Fatalf("got %d products, want %d", len(products), len(wantIDs))
	}
	for i, want := range wantIDs {
		if products[i].ID != want {
			t.Errorf("products[%d].ID = %q, want %q", i, products[i].ID, want)
		}
	}
}

func TestFetchProductsArrayForm(t *testing.T) {
	body := `{"products":[{"id":"a","title":"Pork"},{"id":"b","title":"Kale"}]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	g := New(srv.URL, "freshmart", staticToken("tok"), nil)
	products, err := g.FetchProducts(context.Background())
	if err != nil {
		t.Fatalf("FetchProducts() error = %v", err)
	}
	if len(products) != 2 || products[0].ID != "a" || products[1].ID != "b" {
		t.Errorf("unexpected products: %+v", products)
	}
}

func TestSaveProduct(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	g := New(srv.URL, "freshmart", staticToken("tok"), nil)

	create := model.NewDraft()
	create.Title = "Tomatoes"
	create.Category = "vegetable"
	create.Unit = "kg"
	create.Price = 30

	if err := g.SaveProduct(context.Background(), create); err != nil {
		t.Fatalf("SaveProduct(create) error = %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/freshmart/admin/product" {
		t.Errorf("create request = %s %s", gotMethod, gotPath)
	}
	if _, ok := gotBody["data"]; !ok {
		t.Error("payload must wrap the draft under data")
	}

	update := model.DraftFrom(model.Product{
		ID: "p1", Title: "Tomatoes", Category: "vegetable", Unit: "kg", IsEnabled: 1,
	})
	if err := g.SaveProduct(context.Background(), update); err != nil {
		t.Fatalf("SaveProduct(update) error = %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/api/freshmart/admin/product/p1" {
		t.Errorf("update request = %s %s", gotMethod, gotPath)
	}
}

func TestSaveProductValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid draft must not reach the server")
	}))
	defer srv.Close()

	g := New(srv.URL, "freshmart", staticToken("tok"), nil)

	d := model.NewDraft() // missing title, category, unit
	err := g.SaveProduct(context.Background(), d)
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	msg := UserMessage(err)
	for _, field := range []string{"Title", "Category", "Unit"} {
		if !strings.Contains(msg, field) {
			t.Errorf("message %q should name field %s", msg, field)
		}
	}

	d.Title = "Eggs"
	d.Category = "meat"
	d.Unit = "dozen"
	d.Price = -1
	if err := g.SaveProduct(context.Background(), d); !IsValidation(err) {
		t.Errorf("negative price: expected validation error, got %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	var gotMethod, gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	g := New(srv.URL, "freshmart", staticToken("tok"), nil)
	if err := g.DeleteProduct(context.Background(), "p7"); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/freshmart/admin/product/p7" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindNetwork, "network"},
		{KindUnauthorized, "unauthorized"},
		{KindServer, "server"},
		{KindValidation, "validation"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}
