// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

package devremote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultFixture(t *testing.T) {
	f, err := DefaultFixture()
	if err != nil {
		t.Fatalf("DefaultFixture: %v", err)
	}
	if len(f.Customers) == 0 || len(f.Tables) == 0 {
		t.Fatalf("expected non-empty fixture, got %d customers %d tables", len(f.Customers), len(f.Tables))
	}
	if f.Customers[0].FirstName != "Marilyn" {
		t.Fatalf("unexpected first customer: %#v", f.Customers[0])
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(`{"customers":[{"customerFirstName":"A","customerLastName":"B","id":9}],"tables":[false]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Customers) != 1 || f.Customers[0].ID != 9 || len(f.Tables) != 1 {
		t.Fatalf("unexpected fixture: %#v", f)
	}
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRouter_ServesDocuments(t *testing.T) {
	s := NewServer(Fixture{Customers: []Customer{{FirstName: "A", LastName: "B", ID: 1}}, Tables: []bool{true, false}})
	ts := httptest.NewServer(NewRouter(s, "customer-list.json", "table-map.json"))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/table-map.json")
	if err != nil {
		t.Fatalf("GET tables: %v", err)
	}
	var bits []bool
	_ = json.NewDecoder(resp.Body).Decode(&bits)
	_ = resp.Body.Close()
	if len(bits) != 2 || !bits[0] || bits[1] {
		t.Fatalf("unexpected bitmap: %v", bits)
	}

	resp, err = http.Get(ts.URL + "/customer-list.json")
	if err != nil {
		t.Fatalf("GET customers: %v", err)
	}
	var customers []Customer
	_ = json.NewDecoder(resp.Body).Decode(&customers)
	_ = resp.Body.Close()
	if len(customers) != 1 || customers[0].LastName != "B" {
		t.Fatalf("unexpected customers: %v", customers)
	}

	resp, err = http.Get(ts.URL + "/health")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("health: %v %v", resp, err)
	}
	_ = resp.Body.Close()
}

func TestRouter_EmptyFixtureServesEmptyArrays(t *testing.T) {
	s := NewServer(Fixture{})
	ts := httptest.NewServer(NewRouter(s, "c.json", "t.json"))
	defer ts.Close()

	for _, p := range []string{"/c.json", "/t.json"} {
		resp, err := http.Get(ts.URL + p)
		if err != nil {
			t.Fatalf("GET %s: %v", p, err)
		}
		var raw []json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			t.Fatalf("decode %s: %v", p, err)
		}
		_ = resp.Body.Close()
		if raw == nil || len(raw) != 0 {
			t.Fatalf("%s: expected empty array, got %v", p, raw)
		}
	}
}

func TestFailNext(t *testing.T) {
	s := NewServer(Fixture{Tables: []bool{true}})
	ts := httptest.NewServer(NewRouter(s, "c.json", "t.json"))
	defer ts.Close()

	s.FailNext(1, http.StatusServiceUnavailable)
	resp, _ := http.Get(ts.URL + "/t.json")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected injected 503, got %d", resp.StatusCode)
	}
	resp, _ = http.Get(ts.URL + "/t.json")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected recovery, got %d", resp.StatusCode)
	}

	resp, _ = http.Post(ts.URL+"/t.json", "application/json", nil)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", resp.StatusCode)
	}
}

func TestServer_SetFixtureSwapsData(t *testing.T) {
	s := NewServer(Fixture{Tables: []bool{true}})
	ts := httptest.NewServer(NewRouter(s, "c.json", "t.json"))
	defer ts.Close()

	s.SetFixture(Fixture{Tables: []bool{false, false, true}})
	resp, err := http.Get(ts.URL + "/t.json")
	if err != nil {
		t.Fatalf("GET tables: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var bits []bool
	if err := json.NewDecoder(resp.Body).Decode(&bits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bits) != 3 || bits[0] || !bits[2] {
		t.Fatalf("expected swapped bitmap, got %v", bits)
	}
}
