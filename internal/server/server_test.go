package server

import "testing"

func TestListenAddr(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ":8080"},
		{"8080", ":8080"},
		{":9090", ":9090"},
		{"0.0.0.0:8080", "0.0.0.0:8080"},
		{"localhost:8080", "localhost:8080"},
	}
	for _, tc := range cases {
		if got := listenAddr(tc.in); got != tc.want {
			t.Fatalf("listenAddr(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
